package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListAll(ctx context.Context) ([]Equipment, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]Equipment)
	return items, args.Error(1)
}

func (m *mockStore) ListAvailable(ctx context.Context) ([]Equipment, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]Equipment)
	return items, args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*Equipment, error) {
	args := m.Called(ctx, id)
	eq, _ := args.Get(0).(*Equipment)
	return eq, args.Error(1)
}

func (m *mockStore) TryReserve(ctx context.Context, id string, newStatus Status) (bool, error) {
	args := m.Called(ctx, id, newStatus)
	return args.Bool(0), args.Error(1)
}

func guardOpts() GuardOptions {
	return GuardOptions{
		Timeout: 50 * time.Millisecond,
		Retry:   apperrors.RetryPolicy{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		Breaker: apperrors.NewCircuitBreakerWithConfig(apperrors.BreakerConfig{MinRequests: 100}),
	}
}

func TestGuardedPassesThrough(t *testing.T) {
	next := new(mockStore)
	eq := sampleInventory()[0]
	next.On("ListAvailable", mock.Anything).Return([]Equipment{eq}, nil)
	next.On("GetByID", mock.Anything, "EQ001").Return(&eq, nil)
	next.On("GetByID", mock.Anything, "EQ999").Return(nil, ErrNotFound)
	next.On("TryReserve", mock.Anything, "EQ001", StatusRented).Return(true, nil)

	g := NewGuarded(next, BackendFile, guardOpts(), nil, testLogger())
	ctx := context.Background()

	items, err := g.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	found, err := g.GetByID(ctx, "EQ001")
	require.NoError(t, err)
	assert.Equal(t, "EQ001", found.ID)

	_, err = g.GetByID(ctx, "EQ999")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := g.TryReserve(ctx, "EQ001", StatusRented)
	require.NoError(t, err)
	assert.True(t, ok)

	next.AssertExpectations(t)
}

func TestGuardedDegradesOnFailure(t *testing.T) {
	next := new(mockStore)
	boom := errors.New("connection refused")
	next.On("ListAll", mock.Anything).Return(nil, boom)
	next.On("ListAvailable", mock.Anything).Return(nil, boom)
	next.On("GetByID", mock.Anything, "EQ001").Return(nil, boom)
	next.On("TryReserve", mock.Anything, "EQ001", StatusRented).Return(false, boom)

	g := NewGuarded(next, BackendPostgres, guardOpts(), nil, testLogger())
	ctx := context.Background()

	all, err := g.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	items, err := g.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = g.GetByID(ctx, "EQ001")
	assert.ErrorIs(t, err, ErrUnavailable)

	ok, err := g.TryReserve(ctx, "EQ001", StatusRented)
	require.NoError(t, err)
	assert.False(t, ok)

	// reads are retried once, reservations are not
	next.AssertNumberOfCalls(t, "ListAvailable", 2)
	next.AssertNumberOfCalls(t, "TryReserve", 1)
}

func TestGuardedShortCircuitsWhenOpen(t *testing.T) {
	next := new(mockStore)
	next.On("ListAvailable", mock.Anything).Return(nil, errors.New("timeout"))

	opts := guardOpts()
	opts.Retry = apperrors.RetryPolicy{MaxRetries: 1, InitialBackoff: time.Millisecond}
	opts.Breaker = apperrors.NewCircuitBreakerWithConfig(apperrors.BreakerConfig{MinRequests: 2, OpenTimeout: time.Hour})

	g := NewGuarded(next, BackendSheets, opts, nil, testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.ListAvailable(ctx)
		require.NoError(t, err)
	}
	calls := len(next.Calls)

	items, err := g.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, calls, len(next.Calls), "open breaker must not reach the backend")
}
