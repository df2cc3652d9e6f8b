// Copyright 2025 James Ross
package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/flyingrobots/videoapi/internal/store"
)

// UsageDetail is the per-day aggregate recorded alongside the daily/monthly
// counters kept by the shared store.
type UsageDetail struct {
	VideosGenerated     int
	TotalDurationSeconds float64
}

// UsageStore layers per-day usage detail (videos generated, total duration)
// on top of the shared store's daily/monthly counters, which only track
// request counts for quota checks.
type UsageStore struct {
	backing store.Store

	mu      sync.Mutex
	details map[string]*UsageDetail // key: "userID:YYYY-MM-DD"
	monthly map[string]int         // key: "userID:YYYY-MM", mirrors the backing store's monthly counter
}

// NewUsageStore builds a UsageStore backed by s for the counter primitives.
func NewUsageStore(s store.Store) *UsageStore {
	return &UsageStore{backing: s, details: make(map[string]*UsageDetail), monthly: make(map[string]int)}
}

// Record increments the daily/monthly request counters and accumulates
// detail for the current day.
func (u *UsageStore) Record(ctx context.Context, userID string, videosGenerated int, durationSeconds float64) error {
	_, monthly, err := u.backing.UsageIncr(ctx, userID, 1)
	if err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	now := time.Now().UTC()
	u.monthly[monthlyDetailKey(userID, now)] = monthly

	key := dailyDetailKey(userID, now)
	d, ok := u.details[key]
	if !ok {
		d = &UsageDetail{}
		u.details[key] = d
	}
	d.VideosGenerated += videosGenerated
	d.TotalDurationSeconds += durationSeconds
	return nil
}

// Daily returns the daily request count used for quota enforcement.
func (u *UsageStore) Daily(ctx context.Context, userID string) (int, error) {
	return u.backing.UsageDaily(ctx, userID)
}

// Monthly returns the current month's request count, for the
// account/usage?period=monthly endpoint. It mirrors the counter the
// backing store last reported on a Record call, since Store exposes no
// read-only monthly accessor of its own.
func (u *UsageStore) Monthly(userID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.monthly[monthlyDetailKey(userID, time.Now().UTC())]
}

// Detail returns today's recorded detail for userID, zero-valued if none.
func (u *UsageStore) Detail(userID string) UsageDetail {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := dailyDetailKey(userID, time.Now().UTC())
	if d, ok := u.details[key]; ok {
		return *d
	}
	return UsageDetail{}
}

func dailyDetailKey(userID string, t time.Time) string {
	return userID + ":" + t.Format("2006-01-02")
}

func monthlyDetailKey(userID string, t time.Time) string {
	return userID + ":" + t.Format("2006-01")
}
