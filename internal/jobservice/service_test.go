// Copyright 2025 James Ross
package jobservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/queue"
	"github.com/flyingrobots/videoapi/internal/scheduler"
	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
)

func newTestService() *Service {
	s := store.NewMemoryStore()
	return New(jobstore.NewJobCollection(), jobstore.NewUsageStore(s), scheduler.New(queue.New(s)), zap.NewNop())
}

func testUser(id string, t tier.Tier) *jobstore.User {
	return &jobstore.User{ID: id, Tier: t, IsActive: true}
}

func TestCreateJobRejectsFreeTier(t *testing.T) {
	svc := newTestService()
	user := testUser("user-free", tier.Free)

	_, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat", Duration: 5})
	require.Error(t, err)
	apiErr, ok := err.(*apierr.Error)
	require.True(t, ok)
	assert.Equal(t, "AUTH_INSUFFICIENT_TIER", apiErr.Code)
}

func TestCreateJobRejectsDurationOverTierMax(t *testing.T) {
	svc := newTestService()
	user := testUser("user-dev", tier.Developer)

	_, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat", Duration: 60})
	require.Error(t, err)
	apiErr := err.(*apierr.Error)
	assert.Equal(t, "AUTH_INSUFFICIENT_TIER", apiErr.Code)
	assert.Equal(t, "pro", apiErr.Details["required_tier"])
}

func TestCreateJobRejectsProhibitedContent(t *testing.T) {
	svc := newTestService()
	user := testUser("user-pro", tier.Pro)

	_, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a violence scene", Duration: 10})
	require.Error(t, err)
	apiErr := err.(*apierr.Error)
	assert.Equal(t, "INVALID_PROMPT", apiErr.Code)
}

func TestCreateJobSucceedsAndEnqueues(t *testing.T) {
	svc := newTestService()
	user := testUser("user-pro", tier.Pro)

	job, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat riding a bike", Duration: 10})
	require.NoError(t, err)
	assert.Equal(t, jobstore.StatusQueued, job.Status)
	assert.Equal(t, 1, job.QueuePosition)
	assert.Equal(t, "high", string(job.Priority))
}

func TestCreateJobRejectsOverConcurrentLimit(t *testing.T) {
	svc := newTestService()
	user := testUser("user-dev", tier.Developer)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat", Duration: 10})
		require.NoError(t, err)
	}

	_, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat", Duration: 10})
	require.Error(t, err)
	apiErr := err.(*apierr.Error)
	assert.Equal(t, "QUOTA_EXCEEDED", apiErr.Code)
	assert.Equal(t, "concurrent_jobs", apiErr.Details["quota_type"])
}

func TestGetJobEnforcesOwnership(t *testing.T) {
	svc := newTestService()
	owner := testUser("owner", tier.Pro)
	other := testUser("other", tier.Pro)

	job, err := svc.CreateJob(context.Background(), owner, GenerationRequest{Prompt: "a cat", Duration: 10})
	require.NoError(t, err)

	_, err = svc.GetJob(job.ID, other)
	require.Error(t, err)
	assert.Equal(t, "AUTH_PERMISSION_DENIED", err.(*apierr.Error).Code)

	got, err := svc.GetJob(job.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestCancelJobRemovesFromQueueAndTransitions(t *testing.T) {
	svc := newTestService()
	user := testUser("user-pro", tier.Pro)

	job, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat", Duration: 10})
	require.NoError(t, err)

	cancelled, err := svc.CancelJob(context.Background(), job.ID, user)
	require.NoError(t, err)
	assert.Equal(t, jobstore.StatusCancelled, cancelled.Status)

	_, err = svc.CancelJob(context.Background(), job.ID, user)
	require.Error(t, err)
	assert.Equal(t, "JOB_CANCELLED", err.(*apierr.Error).Code)
}

func TestListJobsFiltersByUserAndStatus(t *testing.T) {
	svc := newTestService()
	user := testUser("user-pro", tier.Pro)

	_, err := svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a cat", Duration: 10})
	require.NoError(t, err)
	_, err = svc.CreateJob(context.Background(), user, GenerationRequest{Prompt: "a dog", Duration: 10})
	require.NoError(t, err)

	jobs, total := svc.ListJobs(user, 1, 20, "")
	assert.Equal(t, 2, total)
	assert.Len(t, jobs, 2)

	jobs, total = svc.ListJobs(user, 1, 20, jobstore.StatusCompleted)
	assert.Equal(t, 0, total)
	assert.Empty(t, jobs)
}
