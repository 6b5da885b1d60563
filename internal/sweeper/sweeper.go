// Package sweeper removes the stored state of visitors who have gone idle.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes visitor state not touched within ttl.
type Purger interface {
	PurgeStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// Start runs a background goroutine that purges idle visitors every interval
// until ctx is done. The returned channel closes once the goroutine exits.
func Start(ctx context.Context, p Purger, interval, ttl time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		slog.Info("Visitor sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				Sweep(ctx, p, ttl)
			case <-ctx.Done():
				slog.Info("Visitor sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
	return done
}

// Sweep runs one purge pass.
func Sweep(ctx context.Context, p Purger, ttl time.Duration) int64 {
	deleted, err := p.PurgeStale(ctx, ttl)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("Visitor sweep canceled", "error", err)
			return 0
		}
		slog.Error("Visitor sweep failed", "error", err)
		return 0
	}
	if deleted > 0 {
		slog.Info("Visitor sweep completed", "purged", deleted)
	}
	return deleted
}
