// Copyright 2025 James Ross
// Package dashboard implements the operational push channel (C9): a
// WebSocket hub that streams a periodic full-state snapshot to connected
// observers, fed by an in-process ring buffer of recent requests.
package dashboard

import (
	"sync"
	"time"
)

// RequestRecord is one entry in the admission middleware's request ring,
// surfaced to dashboard observers.
type RequestRecord struct {
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	UserID     string    `json:"user_id,omitempty"`
	Tier       string    `json:"tier,omitempty"`
	Status     int       `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

const ringCapacity = 100

// requestRing is a fixed-capacity ring buffer of the most recent requests,
// oldest dropped first, guarded by its own mutex so the admission
// middleware and the snapshot builder never contend on hub state.
type requestRing struct {
	mu      sync.Mutex
	entries []RequestRecord
}

func newRequestRing() *requestRing {
	return &requestRing{entries: make([]RequestRecord, 0, ringCapacity)}
}

func (r *requestRing) add(rec RequestRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, rec)
	if len(r.entries) > ringCapacity {
		r.entries = r.entries[len(r.entries)-ringCapacity:]
	}
}

// snapshot returns a copy of the ring's current contents, newest last.
func (r *requestRing) snapshot() []RequestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RequestRecord, len(r.entries))
	copy(out, r.entries)
	return out
}
