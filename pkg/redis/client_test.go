package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordsCommands(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	before := testutil.ToFloat64(redisRequestsTotal.WithLabelValues("set"))
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	assert.Equal(t, before+1, testutil.ToFloat64(redisRequestsTotal.WithLabelValues("set")))
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Config{Addr: addr, MaxRetries: -1})
	assert.Error(t, err)
}
