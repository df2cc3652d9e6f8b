// Copyright 2025 James Ross
package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartQueueLengthUpdater periodically samples queue lengths via the
// supplied callback and publishes them to the QueueLength gauge. Decoupled
// from any particular queue implementation so internal/obs never needs to
// import internal/queue or internal/store.
func StartQueueLengthUpdater(ctx context.Context, interval time.Duration, lengths func() map[string]int, log *zap.Logger) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for priority, n := range lengths() {
					QueueLength.WithLabelValues(priority).Set(float64(n))
				}
			}
		}
	}()
}
