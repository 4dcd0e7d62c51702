package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rental:ratelimit:"

// RedisLimiter implements Limiter using Redis sorted sets and a sliding window,
// so every replica shares one budget per key.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed Limiter implementation.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
	}
}

// Check evaluates the rate limit for a given key using a sliding window algorithm.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	if limit <= 0 {
		return &Result{Allowed: false, Remaining: 0, ResetAt: time.Now().Add(window)}, nil
	}

	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := redisKeyPrefix + key

	cutoff := float64(windowStart.UnixNano()) / float64(time.Millisecond)
	score := float64(now.UnixNano()) / float64(time.Millisecond)

	member := uuid.NewString()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  score,
		Member: member,
	})
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.Expire(ctx, redisKey, window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	count, err := countCmd.Result()
	if err != nil {
		l.log.Error("rate limiter failed to read count", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	allowed := count <= int64(limit)
	if !allowed {
		// denied requests must not consume the budget
		if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
			l.log.Warn("rate limiter failed to drop denied request", slog.String("key", key), slog.Any("error", err))
		}
		count--
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(window)
	if oldest, err := oldestCmd.Result(); err == nil && len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(window)
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
