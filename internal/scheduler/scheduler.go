// Copyright 2025 James Ross
// Package scheduler is the thin orchestration layer between job admission
// and the priority queue: it knows how a tier maps to a priority level but
// defers all queueing mechanics to internal/queue.
package scheduler

import (
	"context"

	"github.com/flyingrobots/videoapi/internal/queue"
	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
)

// Scheduler enqueues and dequeues jobs without knowing about job records;
// callers pass job IDs and keep their own mapping back to job state.
type Scheduler struct {
	queue *queue.PriorityQueue
}

// New builds a Scheduler over the given priority queue.
func New(q *queue.PriorityQueue) *Scheduler {
	return &Scheduler{queue: q}
}

// PriorityForTier returns the queue priority a user's tier is entitled to.
func PriorityForTier(t tier.Tier) store.Priority {
	switch tier.Priority(t) {
	case "critical":
		return store.Critical
	case "high":
		return store.High
	default:
		return store.Normal
	}
}

// Enqueue places jobID on the queue for priority and returns its position.
func (s *Scheduler) Enqueue(ctx context.Context, jobID string, priority store.Priority) (queue.Position, error) {
	return s.queue.Enqueue(ctx, jobID, priority)
}

// Dequeue pulls the next job a worker should process, using weighted fair
// selection across priority levels. Returns "" if every queue is empty.
func (s *Scheduler) Dequeue(ctx context.Context) (jobID string, priority store.Priority, err error) {
	return s.queue.Dequeue(ctx)
}

// Entries returns up to limit queued job IDs for priority, oldest first,
// for dashboard display.
func (s *Scheduler) Entries(ctx context.Context, priority store.Priority, limit int) ([]store.QueueEntry, error) {
	return s.queue.Entries(ctx, priority, limit)
}

// Position reports jobID's current 1-indexed rank in priority's queue.
func (s *Scheduler) Position(ctx context.Context, jobID string, priority store.Priority) (int, error) {
	return s.queue.Position(ctx, jobID, priority)
}

// Cancel removes jobID from priority's queue, e.g. on user cancellation.
func (s *Scheduler) Cancel(ctx context.Context, jobID string, priority store.Priority) error {
	return s.queue.Remove(ctx, jobID, priority)
}

// Stats reports each priority's current length and fixed service weight,
// for dashboard and admin surfaces.
type PriorityStats struct {
	Length int
	Weight int
}

// Stats returns per-priority queue depth and weight.
func (s *Scheduler) Stats(ctx context.Context) (map[store.Priority]PriorityStats, error) {
	lengths, err := s.queue.Lengths(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[store.Priority]PriorityStats, len(lengths))
	for p, n := range lengths {
		out[p] = PriorityStats{Length: n, Weight: queue.Weights[p]}
	}
	return out, nil
}
