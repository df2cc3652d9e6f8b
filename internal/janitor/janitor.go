// Copyright 2025 James Ross
// Package janitor runs the periodic sweep that expires stale rate-limit
// windows accumulated in the in-process fallback store, which has no
// native key TTL the way Redis does.
package janitor

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner is implemented by both store.MemoryStore and store.FallbackStore.
type Pruner interface {
	Prune(maxWindowAge time.Duration)
}

// Janitor drives a single cron-scheduled sweep job.
type Janitor struct {
	cron         *cron.Cron
	pruner       Pruner
	maxWindowAge time.Duration
	log          *zap.Logger
}

// New builds a Janitor that prunes pruner every time schedule fires.
// schedule is a standard five-field cron expression or a descriptor like
// "@every 5m".
func New(schedule string, maxWindowAge time.Duration, pruner Pruner, log *zap.Logger) (*Janitor, error) {
	c := cron.New()
	j := &Janitor{cron: c, pruner: pruner, maxWindowAge: maxWindowAge, log: log}
	if _, err := c.AddFunc(schedule, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

// Start begins running the cron schedule in the background.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule, waiting for any in-flight sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *Janitor) sweep() {
	start := time.Now()
	j.pruner.Prune(j.maxWindowAge)
	j.log.Debug("janitor: swept fallback store",
		zap.Duration("max_window_age", j.maxWindowAge),
		zap.Duration("elapsed", time.Since(start)),
	)
}
