// Copyright 2025 James Ross
// Package jobstore holds the domain records (jobs, videos, users) and the
// in-process collections that back them, independent of the queueing and
// rate-limiting primitives in internal/store.
package jobstore

import (
	"time"

	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
)

// Status is a job's position in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// transitions enumerates the statuses each status may legally move to.
var transitions = map[Status]map[Status]bool{
	StatusPending:    {StatusQueued: true, StatusCancelled: true},
	StatusQueued:     {StatusProcessing: true, StatusCancelled: true, StatusExpired: true},
	StatusProcessing: {StatusCompleted: true, StatusFailed: true},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
	StatusExpired:    {},
}

// CanTransition reports whether moving from to is a legal state change.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// Job is a video generation request and its processing state.
type Job struct {
	ID       string
	UserID   string
	Status   Status
	Priority store.Priority

	Prompt          string
	Duration        int
	Resolution      string
	Style           string
	AspectRatio     string
	Model           string
	WebhookURL      string
	RequestMetadata map[string]any

	QueuePosition        int
	EstimatedWaitSeconds int

	Progress float64

	CreatedAt   time.Time
	QueuedAt    time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	VideoID string
	Error   string

	RetryCount int
	MaxRetries int
}

// Clone returns a deep-enough copy of j so callers can't mutate stored state
// through a returned pointer.
func (j *Job) Clone() *Job {
	cp := *j
	if j.RequestMetadata != nil {
		cp.RequestMetadata = make(map[string]any, len(j.RequestMetadata))
		for k, v := range j.RequestMetadata {
			cp.RequestMetadata[k] = v
		}
	}
	return &cp
}

// NewJob builds a Job in PENDING status from an admission request, applying
// the defaults the reference service uses when a field is left unset.
func NewJob(id, userID string, t tier.Tier, prompt string, duration int) *Job {
	return &Job{
		ID:              id,
		UserID:          userID,
		Status:          StatusPending,
		Priority:        priorityFor(t),
		Prompt:          prompt,
		Duration:        duration,
		Resolution:      "1080p",
		AspectRatio:     "16:9",
		Model:           "dream-machine-1.5",
		RequestMetadata: map[string]any{},
		MaxRetries:      3,
		CreatedAt:       time.Now().UTC(),
	}
}

func priorityFor(t tier.Tier) store.Priority {
	switch tier.Priority(t) {
	case "critical":
		return store.Critical
	case "high":
		return store.High
	default:
		return store.Normal
	}
}

// EstimatedWaitISO8601 renders EstimatedWaitSeconds as a minimal PTxMxS
// duration string, or "" once the job is no longer waiting in a queue.
func (j *Job) EstimatedWaitISO8601() string {
	if j.Status != StatusQueued && j.Status != StatusPending {
		return ""
	}
	minutes := j.EstimatedWaitSeconds / 60
	seconds := j.EstimatedWaitSeconds % 60
	return "PT" + itoa(minutes) + "M" + itoa(seconds) + "S"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
