// Copyright 2025 James Ross
package worker

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/tier"
)

func newNonFailingGenerator() *MockGenerator {
	g := &MockGenerator{rand: rand.New(rand.NewSource(1))}
	g.failureRoll = func() float64 { return 1 } // always above failureRate
	return g
}

func TestMockGeneratorProducesReadyVideo(t *testing.T) {
	g := newNonFailingGenerator()
	job := jobstore.NewJob("job-1", "user-1", tier.Pro, "a cat riding a bike", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	video, err := g.Generate(ctx, job)
	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Equal(t, jobstore.VideoReady, video.Status)
	assert.Equal(t, job.ID, video.JobID)
	assert.Contains(t, video.URL, "mock-storage.lumalabs.ai/videos/")
}

func TestMockGeneratorReturnsErrorOnSimulatedFailure(t *testing.T) {
	g := &MockGenerator{rand: rand.New(rand.NewSource(1))}
	g.failureRoll = func() float64 { return 0 } // always below failureRate
	job := jobstore.NewJob("job-1", "user-1", tier.Pro, "a cat riding a bike", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := g.Generate(ctx, job)
	assert.Error(t, err)
}

func TestMockGeneratorRespectsContextCancellation(t *testing.T) {
	g := NewMockGenerator()
	job := jobstore.NewJob("job-1", "user-1", tier.Enterprise, "a long scene", 300)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, job)
	assert.ErrorIs(t, err, context.Canceled)
}
