package errors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/rental-agent/pkg/logger"
)

func TestHandlerReturnsUserMessage(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewJSONHandler(&buf, nil)), false)

	out := h.Handle(context.Background(), fmt.Errorf("wrap: %w", NewStoreError("list_available", errors.New("dial tcp: refused"))))

	assert.Equal(t, "Our inventory system is temporarily unavailable. Please try again shortly.", out.Message)
	assert.True(t, out.Retryable)
	assert.Equal(t, CodeStore, out.Code)
	assert.Contains(t, buf.String(), `"code":"E200"`)
	assert.Contains(t, buf.String(), "dial tcp: refused")
}

func TestHandlerClassifiesPlainErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		message   string
		code      string
		retryable bool
		level     string
	}{
		{"unknown", errors.New("boom"), defaultUserMessage, CodeUnknown, false, "ERROR"},
		{"deadline", fmt.Errorf("verify license: %w", context.DeadlineExceeded), timeoutUserMessage, CodeExternalAPI, true, "WARN"},
		{"validation", NewValidationError("job_address", "Please say it again."), "The job address doesn't look right. Please say it again.", CodeValidation, false, "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewHandler(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), false)

			out := h.Handle(context.Background(), tt.err)

			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, tt.code, out.Code)
			assert.Equal(t, tt.retryable, out.Retryable)
			assert.Contains(t, buf.String(), `"level":"`+tt.level+`"`)
		})
	}
}

func TestHandlerTagsCallID(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewJSONHandler(&buf, nil)), false)

	ctx := logger.WithCorrelationID(context.Background(), "call-42")
	h.Handle(ctx, NewStateError("booking already confirmed"))

	assert.Contains(t, buf.String(), `"call_id":"call-42"`)
	assert.Equal(t, Outcome{}, h.Handle(ctx, nil))
}

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("license_number", "Please read it again.")

	assert.Equal(t, CodeValidation, Code(err))
	assert.Equal(t, "The license number doesn't look right. Please read it again.", err.UserMessage)
}

func TestWithRetryPolicy(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	t.Run("retries retryable errors", func(t *testing.T) {
		calls := 0
		err := WithRetryPolicy(context.Background(), policy, func() error {
			calls++
			if calls < 3 {
				return NewStoreError("get", errors.New("timeout"))
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non retryable error", func(t *testing.T) {
		calls := 0
		err := WithRetryPolicy(context.Background(), policy, func() error {
			calls++
			return NewValidationError("equipment_id", "bad")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := WithRetryPolicy(context.Background(), policy, func() error {
			calls++
			return NewStoreError("get", errors.New("timeout"))
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})
}

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreakerWithConfig(BreakerConfig{MinRequests: 2, OpenTimeout: time.Minute, HalfOpenMaxRequests: 1})
	cb.now = func() time.Time { return now }

	failing := func() error { return errors.New("down") }

	require.Error(t, cb.Call(failing))
	require.Error(t, cb.Call(failing))
	assert.Equal(t, StateOpen, cb.State())

	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}
