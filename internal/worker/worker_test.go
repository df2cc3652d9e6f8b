// Copyright 2025 James Ross
package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/breaker"
	"github.com/flyingrobots/videoapi/internal/config"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/queue"
	"github.com/flyingrobots/videoapi/internal/scheduler"
	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
)

type fakeGenerator struct {
	err   error
	video *jobstore.Video
}

func (f *fakeGenerator) Generate(ctx context.Context, job *jobstore.Job) (*jobstore.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := *f.video
	v.JobID = job.ID
	v.OwnerID = job.UserID
	return &v, nil
}

func newTestWorker(gen Generator) (*Worker, *jobstore.JobCollection, *scheduler.Scheduler) {
	return newTestWorkerWithBreaker(gen, time.Second, 5)
}

func newTestWorkerWithBreaker(gen Generator, cooldown time.Duration, minSamples int) (*Worker, *jobstore.JobCollection, *scheduler.Scheduler) {
	cfg := &config.Config{}
	cfg.Worker.Enabled = true
	cfg.Worker.Count = 1
	cfg.Worker.PollInterval = 10 * time.Millisecond
	cfg.CircuitBreaker.Window = time.Minute
	cfg.CircuitBreaker.CooldownPeriod = cooldown
	cfg.CircuitBreaker.FailureThreshold = 0.5
	cfg.CircuitBreaker.MinSamples = minSamples

	s := store.NewMemoryStore()
	jobs := jobstore.NewJobCollection()
	videos := jobstore.NewCollection[*jobstore.Video]()
	usage := jobstore.NewUsageStore(s)
	sched := scheduler.New(queue.New(s))

	w := New(cfg, jobs, videos, usage, sched, gen, zap.NewNop())
	return w, jobs, sched
}

func enqueueTestJob(t *testing.T, jobs *jobstore.JobCollection, sched *scheduler.Scheduler, id string) *jobstore.Job {
	t.Helper()
	job := jobstore.NewJob(id, "user-1", tier.Pro, "a cat riding a bike", 2)
	job.Status = jobstore.StatusQueued
	jobs.Create(job.ID, job)
	_, err := sched.Enqueue(context.Background(), job.ID, job.Priority)
	require.NoError(t, err)
	return job
}

func TestProcessJobCompletesOnSuccess(t *testing.T) {
	gen := &fakeGenerator{video: &jobstore.Video{ID: "vid_abc", Status: jobstore.VideoReady, Duration: 2}}
	w, jobs, sched := newTestWorker(gen)

	job := enqueueTestJob(t, jobs, sched, "job-1")

	jobID, _, err := sched.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, job.ID, jobID)

	w.processJob(context.Background(), jobID)

	updated, ok := jobs.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, jobstore.StatusCompleted, updated.Status)
	assert.Equal(t, "vid_abc", updated.VideoID)
	assert.Equal(t, 1.0, updated.Progress)
}

func TestProcessJobFailsOnGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("simulated failure")}
	w, jobs, sched := newTestWorker(gen)

	job := enqueueTestJob(t, jobs, sched, "job-1")
	jobID, _, err := sched.Dequeue(context.Background())
	require.NoError(t, err)

	w.processJob(context.Background(), jobID)

	updated, ok := jobs.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, jobstore.StatusFailed, updated.Status)
	assert.Contains(t, updated.Error, "simulated failure")
}

func TestProcessJobTripsBreakerAfterRepeatedFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream render failure")}
	w, jobs, sched := newTestWorkerWithBreaker(gen, time.Second, 2)

	for i := 0; i < 2; i++ {
		job := enqueueTestJob(t, jobs, sched, "job-fail-"+string(rune('a'+i)))
		jobID, _, err := sched.Dequeue(context.Background())
		require.NoError(t, err)
		require.Equal(t, job.ID, jobID)
		w.processJob(context.Background(), jobID)
	}

	assert.Equal(t, breaker.Open, w.cb.State())
	assert.False(t, w.cb.AllowGenerate(), "breaker should reject new renders while open")
}

func TestProcessJobClosesBreakerAfterRecovery(t *testing.T) {
	failing := &fakeGenerator{err: errors.New("upstream render failure")}
	w, jobs, sched := newTestWorkerWithBreaker(failing, time.Millisecond, 2)

	for i := 0; i < 2; i++ {
		job := enqueueTestJob(t, jobs, sched, "job-fail-"+string(rune('a'+i)))
		jobID, _, err := sched.Dequeue(context.Background())
		require.NoError(t, err)
		w.processJob(context.Background(), jobID)
	}
	require.Equal(t, breaker.Open, w.cb.State())

	time.Sleep(5 * time.Millisecond)
	w.generator = &fakeGenerator{video: &jobstore.Video{ID: "vid_recovered", Status: jobstore.VideoReady, Duration: 2}}

	job := enqueueTestJob(t, jobs, sched, "job-recovered")
	jobID, _, err := sched.Dequeue(context.Background())
	require.NoError(t, err)
	require.True(t, w.cb.AllowGenerate(), "cooldown elapsed, probe render should be admitted")

	w.processJob(context.Background(), jobID)

	updated, ok := jobs.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, jobstore.StatusCompleted, updated.Status)
	assert.Equal(t, breaker.Closed, w.cb.State())
}

func TestProcessJobSkipsInvalidTransition(t *testing.T) {
	gen := &fakeGenerator{video: &jobstore.Video{ID: "vid_abc"}}
	w, jobs, _ := newTestWorker(gen)

	job := jobstore.NewJob("job-1", "user-1", tier.Pro, "prompt", 5)
	job.Status = jobstore.StatusCompleted
	jobs.Create(job.ID, job)

	w.processJob(context.Background(), job.ID)

	updated, _ := jobs.Get(job.ID)
	assert.Equal(t, jobstore.StatusCompleted, updated.Status)
}
