// Copyright 2025 James Ross
package queue

import (
	"context"
	"math/rand"

	"github.com/flyingrobots/videoapi/internal/store"
)

// fixedOrder is the priority walk order used both for weighted selection
// and for the non-empty-bucket fallback sweep.
var fixedOrder = []store.Priority{store.Critical, store.High, store.Normal}

// PriorityQueue is a thin wrapper over the shared store's queue primitives,
// adding weighted-fair selection and wait-time estimation on top.
type PriorityQueue struct {
	store store.Store
	rand  *rand.Rand
}

// New builds a PriorityQueue over the given backing store.
func New(s store.Store) *PriorityQueue {
	return &PriorityQueue{store: s, rand: rand.New(rand.NewSource(randSeed()))}
}

// Enqueue adds jobID to priority's queue and estimates its wait.
func (q *PriorityQueue) Enqueue(ctx context.Context, jobID string, priority store.Priority) (Position, error) {
	pos, err := q.store.QEnqueue(ctx, priority, jobID)
	if err != nil {
		return Position{}, err
	}
	wait, err := q.estimateWait(ctx, pos, priority)
	if err != nil {
		return Position{}, err
	}
	return Position{Position: pos, Priority: priority, EstimatedWaitSeconds: wait}, nil
}

// Dequeue implements weighted fair queuing: draw r in [1,16], walk
// CRITICAL/HIGH/NORMAL accumulating weight, pop from the first bucket whose
// accumulated weight reaches r. If that bucket is empty, fall back to
// popping from the first non-empty bucket in fixed order, so a job is
// always returned while any queue holds one.
func (q *PriorityQueue) Dequeue(ctx context.Context) (jobID string, priority store.Priority, err error) {
	r := q.rand.Intn(totalWeight) + 1
	cumulative := 0
	for _, p := range fixedOrder {
		cumulative += Weights[p]
		if r <= cumulative {
			jobID, err = q.store.QDequeue(ctx, p)
			if err != nil {
				return "", "", err
			}
			if jobID != "" {
				return jobID, p, nil
			}
			break
		}
	}

	for _, p := range fixedOrder {
		jobID, err = q.store.QDequeue(ctx, p)
		if err != nil {
			return "", "", err
		}
		if jobID != "" {
			return jobID, p, nil
		}
	}
	return "", "", nil
}

// Remove deletes jobID from priority's queue if present.
func (q *PriorityQueue) Remove(ctx context.Context, jobID string, priority store.Priority) error {
	return q.store.QRemove(ctx, priority, jobID)
}

// Position returns jobID's 1-indexed rank in priority's queue, or 0 if
// absent.
func (q *PriorityQueue) Position(ctx context.Context, jobID string, priority store.Priority) (int, error) {
	return q.store.QRank(ctx, priority, jobID)
}

// Lengths returns the current length of every priority queue.
func (q *PriorityQueue) Lengths(ctx context.Context) (map[store.Priority]int, error) {
	out := make(map[store.Priority]int, len(fixedOrder))
	for _, p := range fixedOrder {
		n, err := q.store.QLength(ctx, p)
		if err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, nil
}

// Entries returns up to limit queued jobs for priority, oldest first.
func (q *PriorityQueue) Entries(ctx context.Context, priority store.Priority, limit int) ([]store.QueueEntry, error) {
	return q.store.QEntries(ctx, priority, limit)
}

// estimateWait applies the spec's weight-factor formulas: higher
// priorities wait mainly on their own queue; NORMAL and HIGH also wait a
// fraction of the queues ahead of them.
func (q *PriorityQueue) estimateWait(ctx context.Context, position int, priority store.Priority) (int, error) {
	lengths, err := q.Lengths(ctx)
	if err != nil {
		return 0, err
	}
	jobsAhead := float64(position - 1)

	switch priority {
	case store.Normal:
		jobsAhead += float64(lengths[store.Critical]) * 0.3
		jobsAhead += float64(lengths[store.High]) * 0.15
	case store.High:
		jobsAhead += float64(lengths[store.Critical]) * 0.5
	case store.Critical:
		// no adjustment; critical only waits on itself
	}
	return int(jobsAhead * estimatedProcessingSeconds), nil
}
