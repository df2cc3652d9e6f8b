// Copyright 2025 James Ross
package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestFallbackStoreDropsToMemoryOnRedisFailure closes the underlying Redis
// server mid-test and confirms calls still succeed (served by MemoryStore,
// whose queue state is separate from Redis) rather than erroring out, and
// that the store reports itself degraded.
func TestFallbackStoreDropsToMemoryOnRedisFailure(t *testing.T) {
	ctx := context.Background()
	redisStore, mr := newTestRedisStore(t)
	fb := NewFallbackStore(redisStore, zap.NewNop())

	_, err := fb.QEnqueue(ctx, Normal, "job-1")
	require.NoError(t, err)
	require.False(t, fb.Degraded())

	mr.Close()

	pos, err := fb.QEnqueue(ctx, Normal, "job-2")
	require.NoError(t, err)
	require.True(t, fb.Degraded())
	require.Equal(t, 1, pos) // fresh fallback queue, independent of Redis state
}
