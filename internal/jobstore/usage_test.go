// Copyright 2025 James Ross
package jobstore

import (
	"context"
	"testing"

	"github.com/flyingrobots/videoapi/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageStoreRecordsCounterAndDetail(t *testing.T) {
	ctx := context.Background()
	us := NewUsageStore(store.NewMemoryStore())

	require.NoError(t, us.Record(ctx, "user-1", 1, 12.5))
	require.NoError(t, us.Record(ctx, "user-1", 1, 7.5))

	daily, err := us.Daily(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, daily)

	detail := us.Detail("user-1")
	assert.Equal(t, 2, detail.VideosGenerated)
	assert.Equal(t, 20.0, detail.TotalDurationSeconds)
}

func TestUsageStoreDetailDefaultsToZero(t *testing.T) {
	us := NewUsageStore(store.NewMemoryStore())
	detail := us.Detail("nobody")
	assert.Equal(t, UsageDetail{}, detail)
}
