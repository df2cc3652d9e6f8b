// Copyright 2025 James Ross
// Package queue implements the three-level weighted-fair priority queue
// jobs sit in between admission and worker pickup.
package queue

import "github.com/flyingrobots/videoapi/internal/store"

// Weights implement the fixed 10:5:1 CRITICAL:HIGH:NORMAL service ratio.
var Weights = map[store.Priority]int{
	store.Critical: 10,
	store.High:     5,
	store.Normal:   1,
}

const totalWeight = 16 // sum of Weights

const estimatedProcessingSeconds = 30

// Position describes where a job landed after Enqueue.
type Position struct {
	Position             int
	Priority             store.Priority
	EstimatedWaitSeconds int
}
