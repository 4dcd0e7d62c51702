package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically drops idle keys from a MemoryLimiter. Redis keys
// expire on their own and need no sweeping.
type Cleaner struct {
	limiter  *MemoryLimiter
	maxAge   time.Duration
	interval time.Duration
	log      *slog.Logger
}

func NewCleaner(limiter *MemoryLimiter, maxAge, interval time.Duration, log *slog.Logger) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		limiter:  limiter,
		maxAge:   maxAge,
		interval: interval,
		log:      log,
	}
}

// Run starts the cleaner loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.limiter == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			if n := c.limiter.Cleanup(c.maxAge); n > 0 {
				c.log.Debug("rate limit keys removed", slog.Int("count", n))
			}
		}
	}
}
