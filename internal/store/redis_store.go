// Copyright 2025 James Ross
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var queueKeys = map[Priority]string{
	Critical: "queue:critical",
	High:     "queue:high",
	Normal:   "queue:normal",
}

// RedisStore implements Store against a real Redis server using the Lua
// scripts in scripts.go so every primitive is a single atomic round trip.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore builds a client from a redis:// URL with the pool/timeout
// settings the config layer exposes.
func NewRedisStore(url string, maxConns int, dialTimeout, readTimeout, writeTimeout time.Duration, maxRetries int) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = maxConns
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	opts.MaxRetries = maxRetries
	return &RedisStore{rdb: redis.NewClient(opts)}, nil
}

func (s *RedisStore) RLCheck(ctx context.Context, key string, limit int, windowSecs int) (RateLimitResult, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	res, err := rateLimitScript.Run(ctx, s.rdb, []string{key}, windowSecs, limit, now, uuid.NewString()).Result()
	if err != nil {
		return RateLimitResult{}, err
	}
	vals := res.([]interface{})
	return RateLimitResult{
		Allowed:    toInt64(vals[0]) == 1,
		Limit:      limit,
		Remaining:  int(toInt64(vals[1])),
		ResetAt:    toInt64(vals[2]),
		WindowSecs: windowSecs,
	}, nil
}

func (s *RedisStore) RLUsage(ctx context.Context, key string, limit int, windowSecs int) (RateLimitResult, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	cutoff := now - float64(windowSecs)
	if err := s.rdb.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%f", cutoff)).Err(); err != nil {
		return RateLimitResult{}, err
	}
	count, err := s.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, err
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:    int(count) < limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    int64(now) + int64(windowSecs),
		WindowSecs: windowSecs,
	}, nil
}

func (s *RedisStore) QEnqueue(ctx context.Context, priority Priority, jobID string) (int, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	res, err := queueEnqueueScript.Run(ctx, s.rdb, []string{queueKeys[priority]}, jobID, now).Result()
	if err != nil {
		return 0, err
	}
	return int(toInt64(res)), nil
}

func (s *RedisStore) QDequeue(ctx context.Context, priority Priority) (string, error) {
	res, err := queueDequeueScript.Run(ctx, s.rdb, []string{queueKeys[priority]}).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return res.(string), nil
}

func (s *RedisStore) QRank(ctx context.Context, priority Priority, jobID string) (int, error) {
	res, err := queuePositionScript.Run(ctx, s.rdb, []string{queueKeys[priority]}, jobID).Result()
	if err != nil {
		return 0, err
	}
	pos := toInt64(res)
	if pos < 0 {
		return 0, nil
	}
	return int(pos), nil
}

func (s *RedisStore) QRemove(ctx context.Context, priority Priority, jobID string) error {
	return s.rdb.ZRem(ctx, queueKeys[priority], jobID).Err()
}

func (s *RedisStore) QLength(ctx context.Context, priority Priority) (int, error) {
	n, err := s.rdb.ZCard(ctx, queueKeys[priority]).Result()
	return int(n), err
}

func (s *RedisStore) QEntries(ctx context.Context, priority Priority, limit int) ([]QueueEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	zs, err := s.rdb.ZRangeWithScores(ctx, queueKeys[priority], 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]QueueEntry, 0, len(zs))
	for _, z := range zs {
		out = append(out, QueueEntry{JobID: z.Member.(string), EnqueuedAt: z.Score})
	}
	return out, nil
}

func (s *RedisStore) UsageIncr(ctx context.Context, userID string, amount int) (int, int, error) {
	now := time.Now().UTC()
	dailyKey := fmt.Sprintf("usage:daily:%s:%s", userID, now.Format("2006-01-02"))
	monthlyKey := fmt.Sprintf("usage:monthly:%s:%s", userID, now.Format("2006-01"))
	res, err := usageIncrementScript.Run(ctx, s.rdb, []string{dailyKey, monthlyKey}, amount).Result()
	if err != nil {
		return 0, 0, err
	}
	vals := res.([]interface{})
	return int(toInt64(vals[0])), int(toInt64(vals[1])), nil
}

func (s *RedisStore) UsageDaily(ctx context.Context, userID string) (int, error) {
	dailyKey := fmt.Sprintf("usage:daily:%s:%s", userID, time.Now().UTC().Format("2006-01-02"))
	v, err := s.rdb.Get(ctx, dailyKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (s *RedisStore) Healthy(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}
