// Package ratelimit bounds how often a key may perform an action within a sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter evaluates a sliding-window limit for a key. A denied request is
// reported through Result.Allowed, not as an error.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Rule is a limit per window. A non-positive Limit or Window disables it.
type Rule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

func (r Rule) Enabled() bool {
	return r.Limit > 0 && r.Window > 0
}
