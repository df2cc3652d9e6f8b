// Copyright 2025 James Ross
package dashboard

import (
	"context"
	"time"

	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/scheduler"
	"github.com/flyingrobots/videoapi/internal/store"
)

const (
	maxQueueEntries = 50
	maxRecentJobs   = 50
)

// QueuePrioritySnapshot is one priority bucket's current state.
type QueuePrioritySnapshot struct {
	Priority string   `json:"priority"`
	Length   int      `json:"length"`
	Weight   int       `json:"weight"`
	JobIDs   []string `json:"job_ids"`
}

// RateLimitSnapshot is one user's current sliding-window usage, read-only.
type RateLimitSnapshot struct {
	UserID    string `json:"user_id"`
	Tier      string `json:"tier"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetAt   int64  `json:"reset_at"`
}

// JobSummary is the dashboard's compact view of a single job.
type JobSummary struct {
	JobID     string    `json:"job_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the full "update" frame pushed to every connected observer.
type Snapshot struct {
	Type        string                  `json:"type"`
	Timestamp   time.Time               `json:"timestamp"`
	Queues      []QueuePrioritySnapshot `json:"queues"`
	TotalQueued int                     `json:"total_queued"`
	RateLimits  []RateLimitSnapshot     `json:"rate_limits"`
	RecentJobs  []JobSummary            `json:"recent_jobs"`
	Requests    []RequestRecord         `json:"requests"`
}

// UserLister exposes the set of known users, satisfied structurally by
// internal/httpapi.MockAuth without either package importing the other.
type UserLister interface {
	Users() []*jobstore.User
}

func (h *Hub) buildSnapshot(ctx context.Context) Snapshot {
	snap := Snapshot{Type: "update", Timestamp: time.Now().UTC()}

	stats, err := h.scheduler.Stats(ctx)
	if err != nil {
		h.log.Warn("dashboard: scheduler stats failed", errField(err))
		stats = map[store.Priority]scheduler.PriorityStats{}
	}
	for _, p := range store.Priorities {
		s := stats[p]
		entries, err := h.scheduler.Entries(ctx, p, maxQueueEntries)
		if err != nil {
			h.log.Warn("dashboard: queue entries failed", errField(err))
		}
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.JobID
		}
		snap.Queues = append(snap.Queues, QueuePrioritySnapshot{
			Priority: string(p), Length: s.Length, Weight: s.Weight, JobIDs: ids,
		})
		snap.TotalQueued += s.Length
	}

	if h.users != nil {
		for _, u := range h.users.Users() {
			r, err := h.limiter.CurrentUsage(ctx, u.ID, u.Tier, "default")
			if err != nil {
				continue
			}
			snap.RateLimits = append(snap.RateLimits, RateLimitSnapshot{
				UserID: u.ID, Tier: string(u.Tier), Limit: r.Limit, Remaining: r.Remaining, ResetAt: r.ResetAt,
			})
		}
	}

	pred := func(j *jobstore.Job) bool { return !jobstore.IsTerminal(j.Status) }
	less := func(a, b *jobstore.Job) bool { return a.CreatedAt.After(b.CreatedAt) }
	jobs, _ := h.jobs.Collection.List(pred, less, 0, maxRecentJobs)
	for _, j := range jobs {
		snap.RecentJobs = append(snap.RecentJobs, JobSummary{
			JobID: j.ID, UserID: j.UserID, Status: string(j.Status),
			Priority: string(j.Priority), Progress: j.Progress, CreatedAt: j.CreatedAt,
		})
	}

	snap.Requests = h.ring.snapshot()
	return snap
}
