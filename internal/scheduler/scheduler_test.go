// Copyright 2025 James Ross
package scheduler

import (
	"context"
	"testing"

	"github.com/flyingrobots/videoapi/internal/queue"
	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityForTier(t *testing.T) {
	assert.Equal(t, store.Critical, PriorityForTier(tier.Enterprise))
	assert.Equal(t, store.High, PriorityForTier(tier.Pro))
	assert.Equal(t, store.Normal, PriorityForTier(tier.Developer))
	assert.Equal(t, store.Normal, PriorityForTier(tier.Free))
}

func TestSchedulerEnqueueDequeueRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := New(queue.New(store.NewMemoryStore()))

	pos, err := s.Enqueue(ctx, "job-1", store.High)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Position)

	rank, err := s.Position(ctx, "job-1", store.High)
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	jobID, priority, err := s.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, store.High, priority)
}

func TestSchedulerCancelRemovesFromQueue(t *testing.T) {
	ctx := context.Background()
	s := New(queue.New(store.NewMemoryStore()))

	_, err := s.Enqueue(ctx, "job-1", store.Normal)
	require.NoError(t, err)
	require.NoError(t, s.Cancel(ctx, "job-1", store.Normal))

	rank, err := s.Position(ctx, "job-1", store.Normal)
	require.NoError(t, err)
	assert.Equal(t, 0, rank)
}

func TestSchedulerStatsReportsWeights(t *testing.T) {
	ctx := context.Background()
	s := New(queue.New(store.NewMemoryStore()))

	_, err := s.Enqueue(ctx, "job-1", store.Critical)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[store.Critical].Length)
	assert.Equal(t, 10, stats[store.Critical].Weight)
}
