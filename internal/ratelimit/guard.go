package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
)

// Guard applies one Rule to every key through a Limiter.
// Limiter failures let the request through.
type Guard struct {
	limiter Limiter
	rule    Rule
	prefix  string
	log     *slog.Logger
}

func NewGuard(limiter Limiter, rule Rule, prefix string, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}

	return &Guard{
		limiter: limiter,
		rule:    rule,
		prefix:  prefix,
		log:     log,
	}
}

// Allow returns a rate limit AppError when key has exhausted its window.
func (g *Guard) Allow(ctx context.Context, key string) error {
	if g == nil || g.limiter == nil || !g.rule.Enabled() {
		return nil
	}

	result, err := g.limiter.Check(ctx, g.prefix+key, g.rule.Limit, g.rule.Window)
	if err != nil {
		g.log.WarnContext(ctx, "rate limiter error", slog.String("key", key), slog.Any("error", err))
		return nil
	}

	if result.Allowed {
		return nil
	}

	retryAfter := int(math.Ceil(time.Until(result.ResetAt).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	g.log.WarnContext(ctx, "rate limit exceeded", slog.String("key", key), slog.Int("retry_after", retryAfter))
	return apperrors.NewRateLimitError(retryAfter)
}
