// Copyright 2025 James Ross
// Package ratelimit implements the per-user sliding-window-log rate limiter
// that gates every authenticated request before it reaches tier/quota
// admission checks.
package ratelimit

import (
	"context"
	"time"

	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
)

const windowSeconds = 60

// Result mirrors store.RateLimitResult.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    int64
	WindowSecs int
}

// Limiter enforces per-user, per-minute request limits using the shared
// store's sliding-window primitives. A store-layer failure fails open: the
// caller's request is allowed through so a Redis outage degrades fairness,
// not availability.
type Limiter struct {
	store store.Store
}

// New builds a Limiter over the given backing store.
func New(s store.Store) *Limiter {
	return &Limiter{store: s}
}

func key(userID, endpoint string) string {
	if endpoint == "" {
		endpoint = "default"
	}
	return "rate_limit:" + userID + ":" + endpoint
}

// CheckAndIncrement evaluates the caller's tier-scoped per-minute limit and
// records this request against it if allowed.
func (l *Limiter) CheckAndIncrement(ctx context.Context, userID string, t tier.Tier, endpoint string) (Result, error) {
	limit := tier.Get(t).RateLimitPerMinute
	r, err := l.store.RLCheck(ctx, key(userID, endpoint), limit, windowSeconds)
	if err != nil {
		// Fail open: a backing-store error never blocks a request.
		return Result{
			Allowed:    true,
			Limit:      limit,
			Remaining:  limit - 1,
			ResetAt:    time.Now().Unix() + int64(windowSeconds),
			WindowSecs: windowSeconds,
		}, nil
	}
	return Result{
		Allowed:    r.Allowed,
		Limit:      r.Limit,
		Remaining:  r.Remaining,
		ResetAt:    r.ResetAt,
		WindowSecs: r.WindowSecs,
	}, nil
}

// CurrentUsage reports the caller's current window usage without
// incrementing it, used for the dashboard's per-user rate-limit snapshot.
func (l *Limiter) CurrentUsage(ctx context.Context, userID string, t tier.Tier, endpoint string) (Result, error) {
	limit := tier.Get(t).RateLimitPerMinute
	r, err := l.store.RLUsage(ctx, key(userID, endpoint), limit, windowSeconds)
	if err != nil {
		return Result{
			Allowed:    true,
			Limit:      limit,
			Remaining:  limit,
			ResetAt:    time.Now().Unix() + int64(windowSeconds),
			WindowSecs: windowSeconds,
		}, nil
	}
	return Result{
		Allowed:    r.Allowed,
		Limit:      r.Limit,
		Remaining:  r.Remaining,
		ResetAt:    r.ResetAt,
		WindowSecs: r.WindowSecs,
	}, nil
}

// Degraded reports whether the most recent call was served by the
// in-process fallback rather than Redis, when the backing store supports
// reporting it.
func (l *Limiter) Degraded() bool {
	type degradable interface{ Degraded() bool }
	if d, ok := l.store.(degradable); ok {
		return d.Degraded()
	}
	return false
}
