package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/rental-agent/internal/inventory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubStore struct {
	inventory.Store
	err error
}

func (s stubStore) ListAll(context.Context) ([]inventory.Equipment, error) {
	return nil, s.err
}

func TestCheckerReportsEveryComponent(t *testing.T) {
	c := NewChecker(testLogger(), time.Second)
	c.AddCheck("ok", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("broken", CheckFunc(func(context.Context) error { return errors.New("boom") }))
	c.AddCheck("", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("nil", nil)

	results, healthy := c.Check(context.Background())

	assert.False(t, healthy)
	assert.Equal(t, map[string]string{"ok": StatusOK, "broken": "boom"}, results)
	assert.Equal(t, []string{"broken", "ok"}, c.Names())
}

func TestCheckerAppliesTimeout(t *testing.T) {
	c := NewChecker(testLogger(), 10*time.Millisecond)
	c.AddCheck("slow", CheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results, healthy := c.Check(context.Background())

	assert.False(t, healthy)
	assert.Equal(t, context.DeadlineExceeded.Error(), results["slow"])
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, NewRedisChecker(client).HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, NewRedisChecker(client).HealthCheck(context.Background()))
	assert.ErrorIs(t, NewRedisChecker(nil).HealthCheck(context.Background()), redis.ErrClosed)
}

func TestInventoryChecker(t *testing.T) {
	assert.NoError(t, NewInventoryChecker(stubStore{}).HealthCheck(context.Background()))
	assert.EqualError(t, NewInventoryChecker(stubStore{err: errors.New("sheet unreachable")}).HealthCheck(context.Background()), "sheet unreachable")
	assert.Error(t, NewInventoryChecker(nil).HealthCheck(context.Background()))
}
