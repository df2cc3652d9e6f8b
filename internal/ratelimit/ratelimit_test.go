// Copyright 2025 James Ross
package ratelimit

import (
	"context"
	"testing"

	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/flyingrobots/videoapi/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterEnforcesTierLimit(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore())

	cfg := tier.Get(tier.Free) // 10/min
	for i := 0; i < cfg.RateLimitPerMinute; i++ {
		r, err := l.CheckAndIncrement(ctx, "user_free_001", tier.Free, "default")
		require.NoError(t, err)
		assert.True(t, r.Allowed)
	}

	r, err := l.CheckAndIncrement(ctx, "user_free_001", tier.Free, "default")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)
}

func TestLimiterPerEndpointIsolated(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore())

	_, err := l.CheckAndIncrement(ctx, "user_dev_001", tier.Developer, "generate")
	require.NoError(t, err)

	r, err := l.CurrentUsage(ctx, "user_dev_001", tier.Developer, "account")
	require.NoError(t, err)
	assert.Equal(t, tier.Get(tier.Developer).RateLimitPerMinute, r.Remaining)
}
