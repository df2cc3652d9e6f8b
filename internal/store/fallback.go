// Copyright 2025 James Ross
package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// FallbackStore tries RedisStore for every call and drops to an in-process
// MemoryStore when Redis returns a transport-level error, per call, so a
// transient Redis outage degrades cross-process consistency rather than
// availability.
type FallbackStore struct {
	primary  *RedisStore
	fallback *MemoryStore
	log      *zap.Logger

	// degraded reports whether the most recent call fell through, for
	// callers that want to surface X-RateLimit-Degraded style signals.
	degraded bool
}

// NewFallbackStore wraps an existing RedisStore with a fresh in-process
// fallback.
func NewFallbackStore(primary *RedisStore, log *zap.Logger) *FallbackStore {
	return &FallbackStore{primary: primary, fallback: NewMemoryStore(), log: log}
}

// Degraded reports whether the last call served from the in-process
// fallback rather than Redis.
func (f *FallbackStore) Degraded() bool { return f.degraded }

func (f *FallbackStore) warn(op string, err error) {
	f.degraded = true
	if f.log != nil {
		f.log.Warn("store: redis unavailable, using in-process fallback", zap.String("op", op), zap.Error(err))
	}
}

func (f *FallbackStore) RLCheck(ctx context.Context, key string, limit int, windowSecs int) (RateLimitResult, error) {
	r, err := f.primary.RLCheck(ctx, key, limit, windowSecs)
	if err != nil {
		f.warn("RLCheck", err)
		return f.fallback.RLCheck(ctx, key, limit, windowSecs)
	}
	f.degraded = false
	return r, nil
}

func (f *FallbackStore) RLUsage(ctx context.Context, key string, limit int, windowSecs int) (RateLimitResult, error) {
	r, err := f.primary.RLUsage(ctx, key, limit, windowSecs)
	if err != nil {
		f.warn("RLUsage", err)
		return f.fallback.RLUsage(ctx, key, limit, windowSecs)
	}
	f.degraded = false
	return r, nil
}

func (f *FallbackStore) QEnqueue(ctx context.Context, priority Priority, jobID string) (int, error) {
	p, err := f.primary.QEnqueue(ctx, priority, jobID)
	if err != nil {
		f.warn("QEnqueue", err)
		return f.fallback.QEnqueue(ctx, priority, jobID)
	}
	f.degraded = false
	return p, nil
}

func (f *FallbackStore) QDequeue(ctx context.Context, priority Priority) (string, error) {
	j, err := f.primary.QDequeue(ctx, priority)
	if err != nil {
		f.warn("QDequeue", err)
		return f.fallback.QDequeue(ctx, priority)
	}
	f.degraded = false
	return j, nil
}

func (f *FallbackStore) QRank(ctx context.Context, priority Priority, jobID string) (int, error) {
	p, err := f.primary.QRank(ctx, priority, jobID)
	if err != nil {
		f.warn("QRank", err)
		return f.fallback.QRank(ctx, priority, jobID)
	}
	f.degraded = false
	return p, nil
}

func (f *FallbackStore) QRemove(ctx context.Context, priority Priority, jobID string) error {
	if err := f.primary.QRemove(ctx, priority, jobID); err != nil {
		f.warn("QRemove", err)
		return f.fallback.QRemove(ctx, priority, jobID)
	}
	f.degraded = false
	return nil
}

func (f *FallbackStore) QLength(ctx context.Context, priority Priority) (int, error) {
	n, err := f.primary.QLength(ctx, priority)
	if err != nil {
		f.warn("QLength", err)
		return f.fallback.QLength(ctx, priority)
	}
	f.degraded = false
	return n, nil
}

func (f *FallbackStore) QEntries(ctx context.Context, priority Priority, limit int) ([]QueueEntry, error) {
	e, err := f.primary.QEntries(ctx, priority, limit)
	if err != nil {
		f.warn("QEntries", err)
		return f.fallback.QEntries(ctx, priority, limit)
	}
	f.degraded = false
	return e, nil
}

func (f *FallbackStore) UsageIncr(ctx context.Context, userID string, amount int) (int, int, error) {
	d, mth, err := f.primary.UsageIncr(ctx, userID, amount)
	if err != nil {
		f.warn("UsageIncr", err)
		return f.fallback.UsageIncr(ctx, userID, amount)
	}
	f.degraded = false
	return d, mth, nil
}

func (f *FallbackStore) UsageDaily(ctx context.Context, userID string) (int, error) {
	d, err := f.primary.UsageDaily(ctx, userID)
	if err != nil {
		f.warn("UsageDaily", err)
		return f.fallback.UsageDaily(ctx, userID)
	}
	f.degraded = false
	return d, nil
}

func (f *FallbackStore) Healthy(ctx context.Context) error {
	return f.primary.Healthy(ctx)
}

func (f *FallbackStore) Close() error {
	return f.primary.Close()
}

// Prune is invoked periodically by internal/janitor to expire stale
// entries accumulated in the in-process fallback, which has no native key
// TTL the way Redis does. It satisfies janitor.Pruner.
func (f *FallbackStore) Prune(maxWindowAge time.Duration) {
	f.fallback.pruneExpired(maxWindowAge)
}
