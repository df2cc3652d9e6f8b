// Copyright 2025 James Ross
package janitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePruner struct {
	calls []time.Duration
}

func (f *fakePruner) Prune(maxWindowAge time.Duration) {
	f.calls = append(f.calls, maxWindowAge)
}

func TestJanitorSweepsOnSchedule(t *testing.T) {
	pruner := &fakePruner{}
	j, err := New("@every 10ms", 5*time.Minute, pruner, zap.NewNop())
	require.NoError(t, err)

	j.Start()
	time.Sleep(50 * time.Millisecond)
	j.Stop()

	assert.NotEmpty(t, pruner.calls)
	assert.Equal(t, 5*time.Minute, pruner.calls[0])
}

func TestJanitorRejectsInvalidSchedule(t *testing.T) {
	pruner := &fakePruner{}
	_, err := New("not a schedule", time.Minute, pruner, zap.NewNop())
	assert.Error(t, err)
}
