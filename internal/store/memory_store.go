// Copyright 2025 James Ross
package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local implementation of Store, used as the
// fallback backend when Redis is unreachable and directly as the only
// backend in tests and single-process deployments.
type MemoryStore struct {
	mu sync.Mutex

	// rate limit windows, keyed by rate-limit key
	rl map[string][]float64

	// priority queues, each a FIFO-by-score slice kept sorted on insert
	queues map[Priority][]QueueEntry

	// usage counters, keyed by "user:day" / "user:month"
	dailyUsage   map[string]int
	monthlyUsage map[string]int

	now func() float64
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rl: make(map[string][]float64),
		queues: map[Priority][]QueueEntry{
			Critical: {}, High: {}, Normal: {},
		},
		dailyUsage:   make(map[string]int),
		monthlyUsage: make(map[string]int),
		now:          func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
}

func (m *MemoryStore) RLCheck(ctx context.Context, key string, limit int, windowSecs int) (RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	window := float64(windowSecs)
	cutoff := now - window

	entries := m.rl[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	m.rl[key] = kept

	if len(kept) < limit {
		m.rl[key] = append(kept, now)
		return RateLimitResult{
			Allowed:    true,
			Limit:      limit,
			Remaining:  limit - len(kept) - 1,
			ResetAt:    int64(now + window),
			WindowSecs: windowSecs,
		}, nil
	}

	oldest := now
	if len(kept) > 0 {
		oldest = kept[0]
		for _, ts := range kept {
			if ts < oldest {
				oldest = ts
			}
		}
	}
	return RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    int64(oldest + window),
		WindowSecs: windowSecs,
	}, nil
}

func (m *MemoryStore) RLUsage(ctx context.Context, key string, limit int, windowSecs int) (RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	window := float64(windowSecs)
	cutoff := now - window

	entries := m.rl[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	m.rl[key] = kept

	count := len(kept)
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:    count < limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    int64(now + window),
		WindowSecs: windowSecs,
	}, nil
}

func (m *MemoryStore) QEnqueue(ctx context.Context, priority Priority, jobID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	score := m.now()
	q := m.queues[priority]
	q = append(q, QueueEntry{JobID: jobID, EnqueuedAt: score})
	sort.SliceStable(q, func(i, j int) bool { return q[i].EnqueuedAt < q[j].EnqueuedAt })
	m.queues[priority] = q

	for i, e := range q {
		if e.JobID == jobID {
			return i + 1, nil
		}
	}
	return len(q), nil
}

func (m *MemoryStore) QDequeue(ctx context.Context, priority Priority) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[priority]
	if len(q) == 0 {
		return "", nil
	}
	jobID := q[0].JobID
	m.queues[priority] = q[1:]
	return jobID, nil
}

func (m *MemoryStore) QRank(ctx context.Context, priority Priority, jobID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.queues[priority] {
		if e.JobID == jobID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (m *MemoryStore) QRemove(ctx context.Context, priority Priority, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[priority]
	for i, e := range q {
		if e.JobID == jobID {
			m.queues[priority] = append(q[:i], q[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) QLength(ctx context.Context, priority Priority) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[priority]), nil
}

func (m *MemoryStore) QEntries(ctx context.Context, priority Priority, limit int) ([]QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[priority]
	if limit > len(q) || limit <= 0 {
		limit = len(q)
	}
	out := make([]QueueEntry, limit)
	copy(out, q[:limit])
	return out, nil
}

func (m *MemoryStore) UsageIncr(ctx context.Context, userID string, amount int) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := dailyKey(userID, m.now())
	month := monthlyKey(userID, m.now())
	m.dailyUsage[day] += amount
	m.monthlyUsage[month] += amount
	return m.dailyUsage[day], m.monthlyUsage[month], nil
}

func (m *MemoryStore) UsageDaily(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyUsage[dailyKey(userID, m.now())], nil
}

func (m *MemoryStore) Healthy(ctx context.Context) error { return nil }
func (m *MemoryStore) Close() error                      { return nil }

// Prune drops rate-limit windows older than maxWindowAge, for callers that
// run MemoryStore standalone (no Redis) and need the janitor's periodic
// sweep applied directly rather than through FallbackStore.Prune.
func (m *MemoryStore) Prune(maxWindowAge time.Duration) {
	m.pruneExpired(maxWindowAge)
}

func (m *MemoryStore) pruneExpired(maxWindowAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now() - maxWindowAge.Seconds()
	for key, entries := range m.rl {
		kept := entries[:0]
		for _, ts := range entries {
			if ts > cutoff {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(m.rl, key)
		} else {
			m.rl[key] = kept
		}
	}
}

func dailyKey(userID string, now float64) string {
	t := time.Unix(int64(now), 0).UTC()
	return userID + ":" + t.Format("2006-01-02")
}

func monthlyKey(userID string, now float64) string {
	t := time.Unix(int64(now), 0).UTC()
	return userID + ":" + t.Format("2006-01")
}
