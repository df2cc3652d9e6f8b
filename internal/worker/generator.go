// Copyright 2025 James Ross
// Package worker polls the priority queue and runs jobs through a video
// generator, transitioning each job to its terminal state.
package worker

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/flyingrobots/videoapi/internal/jobstore"
)

// failureRate is the simulated chance that an otherwise-successful
// generation fails, for exercising the failure path.
const failureRate = 0.05

// Generator produces a Video from a Job.
type Generator interface {
	Generate(ctx context.Context, job *jobstore.Job) (*jobstore.Video, error)
}

// MockGenerator simulates video generation with duration-proportional
// timing and a small random failure rate, standing in for a real rendering
// backend.
type MockGenerator struct {
	rand        *rand.Rand
	failureRoll func() float64 // overridable in tests; defaults to rand.Float64
}

// NewMockGenerator builds a MockGenerator.
func NewMockGenerator() *MockGenerator {
	r := rand.New(rand.NewSource(randSeed()))
	return &MockGenerator{rand: r, failureRoll: r.Float64}
}

func randSeed() int64 {
	return time.Now().UnixNano()
}

// Generate simulates rendering job in ten progress chunks, then returns a
// ready Video or a simulated generation error.
func (g *MockGenerator) Generate(ctx context.Context, job *jobstore.Job) (*jobstore.Video, error) {
	baseTime := float64(job.Duration) * 0.5
	variance := 0.8 + g.rand.Float64()*0.4
	processingTime := time.Duration(baseTime * variance * float64(time.Second))

	const chunks = 10
	chunkTime := processingTime / chunks
	for i := 0; i < chunks; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(chunkTime):
		}
	}

	if g.failureRoll() < failureRate {
		return nil, fmt.Errorf("simulated generation failure for job %s", job.ID)
	}

	videoID := "vid_" + uuid.New().String()[:12]
	title := job.Prompt
	if len(title) > 50 {
		title = title[:50]
	}

	return &jobstore.Video{
		ID:           videoID,
		Title:        title,
		Description:  job.Prompt,
		Duration:     float64(job.Duration),
		Resolution:   jobstore.Resolution(job.Resolution),
		AspectRatio:  jobstore.AspectRatio(job.AspectRatio),
		Style:        jobstore.Style(job.Style),
		Status:       jobstore.VideoReady,
		URL:          fmt.Sprintf("https://mock-storage.lumalabs.ai/videos/%s.mp4", videoID),
		ThumbnailURL: fmt.Sprintf("https://mock-storage.lumalabs.ai/thumbs/%s.jpg", videoID),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
		OwnerID:      job.UserID,
		JobID:        job.ID,
		Metadata:     map[string]any{},
	}, nil
}
