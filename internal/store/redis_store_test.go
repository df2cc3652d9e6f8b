// Copyright 2025 James Ross
package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://"+mr.Addr()+"/0", 10, 0, 0, 0, 0)
	require.NoError(t, err)
	return s, mr
}

func TestRedisStoreRateLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	for i := 0; i < 2; i++ {
		r, err := s.RLCheck(ctx, "rate_limit:user_free_001:default", 2, 60)
		require.NoError(t, err)
		require.True(t, r.Allowed)
	}

	r, err := s.RLCheck(ctx, "rate_limit:user_free_001:default", 2, 60)
	require.NoError(t, err)
	require.False(t, r.Allowed)
}

func TestRedisStoreQueueOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	pos1, err := s.QEnqueue(ctx, Critical, "job-a")
	require.NoError(t, err)
	require.Equal(t, 1, pos1)

	pos2, err := s.QEnqueue(ctx, Critical, "job-b")
	require.NoError(t, err)
	require.Equal(t, 2, pos2)

	rank, err := s.QRank(ctx, Critical, "job-b")
	require.NoError(t, err)
	require.Equal(t, 2, rank)

	jobID, err := s.QDequeue(ctx, Critical)
	require.NoError(t, err)
	require.Equal(t, "job-a", jobID)
}

func TestRedisStoreUsage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	daily, monthly, err := s.UsageIncr(ctx, "user_pro_001", 1)
	require.NoError(t, err)
	require.Equal(t, 1, daily)
	require.Equal(t, 1, monthly)
}
