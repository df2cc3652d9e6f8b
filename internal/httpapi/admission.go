// Copyright 2025 James Ross
package httpapi

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/config"
)

// inflightLimiter caps total inbound admitted request throughput across
// every caller, ahead of the per-user sliding-window check. It is the
// implementer's chosen bound on the otherwise-unbounded queue (§5
// "Backpressure"): zero MaxInflight disables it, matching the spec's
// default of no capacity bound.
type inflightLimiter struct {
	limiter *rate.Limiter
}

// newInflightLimiter builds an inflightLimiter from cfg.Admission, or nil
// if no bound was configured.
func newInflightLimiter(cfg *config.Config) *inflightLimiter {
	if cfg.Admission.MaxInflight <= 0 {
		return nil
	}
	// Burst equals the configured ceiling itself: this limits sustained
	// throughput, not a one-off spike of that size.
	return &inflightLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Admission.MaxInflight), cfg.Admission.MaxInflight)}
}

// allow reports whether another request may be admitted right now.
func (l *inflightLimiter) allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}

func writeQueueFull(w http.ResponseWriter) {
	writeError(w, apierr.QueueFull())
}
