package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticChecker struct {
	results map[string]string
	healthy bool
}

func (c staticChecker) Check(context.Context) (map[string]string, bool) {
	out := make(map[string]string, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out, c.healthy
}

type closer struct{ closed atomic.Bool }

func (c *closer) Close() error {
	c.closed.Store(true)
	return nil
}

func TestShutdownRunsEveryHookOnce(t *testing.T) {
	s := NewShutdown(testLogger(), nil)

	var calls atomic.Int32
	s.Register("a", func(context.Context) error { calls.Add(1); return nil })
	s.Register("b", func(context.Context) error { calls.Add(1); return errors.New("flush failed") })
	s.Register("nil", nil)

	c := &closer{}
	s.Register("redis", CloserHook(c))

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: flush failed")
	assert.True(t, c.closed.Load())

	assert.Equal(t, err, s.Execute(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestShutdownHonoursDeadline(t *testing.T) {
	s := NewShutdown(testLogger(), nil)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	s.Register("stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Execute(ctx), context.DeadlineExceeded)
}

func TestProbesWithdrawReadinessOnShutdown(t *testing.T) {
	probes := NewProbes(staticChecker{results: map[string]string{"redis": "OK"}, healthy: true}, testLogger())

	results, ok := probes.Check(context.Background())
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"redis": "OK"}, results)

	require.NoError(t, NewShutdown(testLogger(), probes).Execute(context.Background()))

	results, ok = probes.Check(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "in progress", results["shutdown"])
}
