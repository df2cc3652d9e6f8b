// Copyright 2025 James Ross
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/breaker"
	"github.com/flyingrobots/videoapi/internal/config"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/obs"
	"github.com/flyingrobots/videoapi/internal/scheduler"
)

// Worker pulls jobs from the scheduler and runs them through a Generator,
// transitioning each to a terminal state.
//
// Shutdown is cooperative: once a goroutine has dequeued a job it runs that
// job to completion even if the parent context is cancelled, so a video
// never gets abandoned mid-render; only the next poll is interrupted.
type Worker struct {
	cfg       *config.Config
	jobs      *jobstore.JobCollection
	videos    *jobstore.Collection[*jobstore.Video]
	usage     *jobstore.UsageStore
	scheduler *scheduler.Scheduler
	generator Generator
	cb        *breaker.GeneratorBreaker
	log       *zap.Logger
}

// New builds a Worker.
func New(
	cfg *config.Config,
	jobs *jobstore.JobCollection,
	videos *jobstore.Collection[*jobstore.Video],
	usage *jobstore.UsageStore,
	sched *scheduler.Scheduler,
	generator Generator,
	log *zap.Logger,
) *Worker {
	cb := breaker.NewGeneratorBreaker(
		cfg.CircuitBreaker.Window,
		cfg.CircuitBreaker.CooldownPeriod,
		cfg.CircuitBreaker.FailureThreshold,
		cfg.CircuitBreaker.MinSamples,
	)
	return &Worker{
		cfg: cfg, jobs: jobs, videos: videos, usage: usage,
		scheduler: sched, generator: generator, cb: cb, log: log,
	}
}

// Run starts cfg.Worker.Count poll loops and blocks until ctx is cancelled
// and every loop has finished its current job.
func (w *Worker) Run(ctx context.Context) {
	if !w.cfg.Worker.Enabled {
		w.log.Info("worker disabled by configuration")
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Worker.Count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.runOne(ctx, id)
		}(i)
	}

	go w.reportBreakerState(ctx)

	wg.Wait()
	w.log.Info("worker stopped")
}

func (w *Worker) runOne(ctx context.Context, id int) {
	for ctx.Err() == nil {
		if !w.cb.AllowGenerate() {
			time.Sleep(w.cfg.Worker.PollInterval)
			continue
		}

		jobID, _, err := w.scheduler.Dequeue(ctx)
		if err != nil {
			w.log.Warn("dequeue error", zap.Int("worker_id", id), obs.Err(err))
			time.Sleep(w.cfg.Worker.PollInterval)
			continue
		}
		if jobID == "" {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.Worker.PollInterval):
			}
			continue
		}

		// Detached from ctx: a dequeued job always runs to completion.
		w.processJob(context.Background(), jobID)
	}
}

func (w *Worker) reportBreakerState(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switch w.cb.State() {
			case breaker.Closed:
				obs.GeneratorBreakerState.Set(0)
			case breaker.HalfOpen:
				obs.GeneratorBreakerState.Set(1)
			case breaker.Open:
				obs.GeneratorBreakerState.Set(2)
			}
		}
	}
}

func (w *Worker) processJob(ctx context.Context, jobID string) {
	job, ok := w.jobs.Get(jobID)
	if !ok {
		w.log.Warn("dequeued job missing from store", zap.String("job_id", jobID))
		return
	}

	if !jobstore.CanTransition(job.Status, jobstore.StatusProcessing) {
		w.log.Warn("invalid transition, skipping",
			zap.String("job_id", jobID), zap.String("from", string(job.Status)))
		return
	}
	job.Status = jobstore.StatusProcessing
	job.StartedAt = time.Now().UTC()
	w.jobs.Update(job.ID, job)

	start := time.Now()
	video, err := w.generator.Generate(ctx, job)
	obs.JobProcessingDuration.Observe(time.Since(start).Seconds())
	w.cb.RecordResult(err == nil)

	if err != nil {
		w.failJob(job, err)
		return
	}
	w.completeJob(ctx, job, video)
}

func (w *Worker) completeJob(ctx context.Context, job *jobstore.Job, video *jobstore.Video) {
	w.videos.Create(video.ID, video)

	job.Status = jobstore.StatusCompleted
	job.CompletedAt = time.Now().UTC()
	job.VideoID = video.ID
	job.Progress = 1.0
	w.jobs.Update(job.ID, job)

	if err := w.usage.Record(ctx, job.UserID, 1, video.Duration); err != nil {
		w.log.Warn("usage record failed", zap.String("job_id", job.ID), obs.Err(err))
	}

	obs.JobsCompleted.Inc()
	w.log.Info("job completed", zap.String("job_id", job.ID), zap.String("video_id", video.ID))
}

func (w *Worker) failJob(job *jobstore.Job, cause error) {
	job.Status = jobstore.StatusFailed
	job.Error = cause.Error()
	job.CompletedAt = time.Now().UTC()
	w.jobs.Update(job.ID, job)

	obs.JobsFailed.Inc()
	w.log.Warn("job failed", zap.String("job_id", job.ID), obs.Err(fmt.Errorf("generation: %w", cause)))
}
