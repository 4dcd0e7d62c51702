package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func limiters(t *testing.T) map[string]Limiter {
	return map[string]Limiter{
		"memory": NewMemoryLimiter(),
		"redis":  NewRedisLimiter(setupTestRedis(t), testLogger()),
	}
}

func TestLimiterAllowsWithinLimit(t *testing.T) {
	for name, limiter := range limiters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				result, err := limiter.Check(ctx, "test:allows", 5, time.Minute)
				require.NoError(t, err)
				assert.True(t, result.Allowed)
				assert.Equal(t, 5-(i+1), result.Remaining)
			}
		})
	}
}

func TestLimiterBlocksWhenExceeded(t *testing.T) {
	for name, limiter := range limiters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 4; i++ {
				result, err := limiter.Check(ctx, "test:blocks", 2, time.Minute)
				require.NoError(t, err)
				assert.Equal(t, i < 2, result.Allowed, "request %d", i)
			}
		})
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	for name, limiter := range limiters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := limiter.Check(ctx, "call:a", 1, time.Minute)
			require.NoError(t, err)

			result, err := limiter.Check(ctx, "call:b", 1, time.Minute)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
		})
	}
}

func TestRedisLimiterSlidingWindow(t *testing.T) {
	limiter := NewRedisLimiter(setupTestRedis(t), testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "test:window", 2, time.Second)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	time.Sleep(1100 * time.Millisecond)

	result, err := limiter.Check(ctx, "test:window", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiterSlidingWindowAndCleanup(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, now.Add(time.Minute), result.ResetAt)

	now = now.Add(61 * time.Second)
	result, err = limiter.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, limiter.Cleanup(time.Minute))
}

func TestGuard(t *testing.T) {
	guard := NewGuard(NewMemoryLimiter(), Rule{Limit: 2, Window: time.Minute}, "tool:", testLogger())
	ctx := context.Background()

	require.NoError(t, guard.Allow(ctx, "call-1"))
	require.NoError(t, guard.Allow(ctx, "call-1"))

	err := guard.Allow(ctx, "call-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRateLimit, apperrors.Code(err))

	assert.NoError(t, guard.Allow(ctx, "call-2"))
}

func TestGuardDisabledRule(t *testing.T) {
	guard := NewGuard(NewMemoryLimiter(), Rule{}, "tool:", testLogger())
	for i := 0; i < 10; i++ {
		assert.NoError(t, guard.Allow(context.Background(), "call"))
	}
}
