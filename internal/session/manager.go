package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Proton-105/rental-agent/internal/agent"
	apperrors "github.com/Proton-105/rental-agent/internal/errors"
	"github.com/Proton-105/rental-agent/internal/lock"
	"github.com/Proton-105/rental-agent/internal/workflow"
	"github.com/Proton-105/rental-agent/pkg/logger"
	"github.com/Proton-105/rental-agent/pkg/metrics"
)

const (
	callLockPrefix     = "call:"
	defaultLockTimeout = 10 * time.Second
)

// Reply is the outcome of one operation on a call.
type Reply struct {
	CallID string
	Text   string
	Stage  workflow.Stage
	Ended  bool
	// Instructions is set when the operation moved the call to a new, non-terminal stage.
	Instructions string
}

// Options tune a Manager.
type Options struct {
	MaxNegotiationAttempts int
	LockTimeout            time.Duration
	SaveRetry              apperrors.RetryPolicy
}

// Manager owns call sessions. It runs at most one operation per call at a time.
type Manager struct {
	agent  *agent.Agent
	store  Store
	locker lock.Locker
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

func NewManager(a *agent.Agent, store Store, locker lock.Locker, opts Options, log *slog.Logger) *Manager {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		agent:  a,
		store:  store,
		locker: locker,
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
}

// Start opens a session for a new call and returns it with the greeting instructions.
func (m *Manager) Start(ctx context.Context) (*Record, string, error) {
	now := m.now().UTC()
	rec := &Record{
		CallID:    uuid.NewString(),
		State:     workflow.NewConversationState(m.opts.MaxNegotiationAttempts),
		StartedAt: now,
		UpdatedAt: now,
	}

	ctx = withCallID(ctx, rec.CallID)

	if err := m.store.Save(ctx, rec); err != nil {
		return nil, "", apperrors.NewStoreError("session save", err)
	}

	instructions, err := m.agent.Instructions(ctx, rec.State)
	if err != nil {
		return nil, "", fmt.Errorf("render instructions: %w", err)
	}

	metrics.RecordCallStarted()
	m.log.InfoContext(ctx, "call started", slog.String("call_id", rec.CallID))

	return rec, instructions, nil
}

// Invoke runs a workflow operation on the call's state and persists the result.
func (m *Manager) Invoke(ctx context.Context, callID, tool string, args agent.Args) (Reply, error) {
	ctx = withCallID(ctx, callID)

	release, err := m.acquire(ctx, callID)
	if err != nil {
		return Reply{}, err
	}
	defer release()

	rec, err := m.load(ctx, callID)
	if err != nil {
		return Reply{}, err
	}
	if rec.State.Ended() {
		return Reply{}, ErrCallEnded
	}

	from := rec.State.Stage
	wasBooked := rec.State.BookingConfirmed
	text, err := m.agent.Invoke(ctx, rec.State, tool, args)
	if err != nil {
		return Reply{}, err
	}

	rec.UpdatedAt = m.now().UTC()
	if err := m.save(ctx, rec); err != nil {
		// The unit is already reserved in inventory; the caller must still hear the confirmation.
		if wasBooked || !rec.State.BookingConfirmed {
			return Reply{}, err
		}
		m.log.ErrorContext(ctx, "booking confirmed but session save failed",
			slog.String("call_id", callID),
			slog.String("booking_reference", rec.State.BookingReference),
			slog.Any("error", err),
		)
	}

	reply := Reply{
		CallID: callID,
		Text:   text,
		Stage:  rec.State.Stage,
		Ended:  rec.State.Ended(),
	}

	switch {
	case reply.Ended:
		metrics.RecordCallEnded(rec.State.EndReason())
		m.log.InfoContext(ctx, "call ended",
			slog.String("call_id", callID),
			slog.String("reason", rec.State.EndReason()),
			slog.Duration("duration", rec.UpdatedAt.Sub(rec.StartedAt)),
		)
	case reply.Stage != from:
		instructions, err := m.agent.Instructions(ctx, rec.State)
		if err != nil {
			m.log.ErrorContext(ctx, "failed to render instructions", slog.String("stage", reply.Stage.String()), slog.Any("error", err))
			break
		}
		reply.Instructions = instructions
	}

	return reply, nil
}

// Instructions renders the current stage instructions of a call.
func (m *Manager) Instructions(ctx context.Context, callID string) (string, error) {
	ctx = withCallID(ctx, callID)

	rec, err := m.load(ctx, callID)
	if err != nil {
		return "", err
	}
	return m.agent.Instructions(ctx, rec.State)
}

// Get returns a copy of the call's session.
func (m *Manager) Get(ctx context.Context, callID string) (*Record, error) {
	return m.load(ctx, callID)
}

// CountByStage reports live calls per stage.
func (m *Manager) CountByStage(ctx context.Context) (map[string]int, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, rec := range records {
		if rec.State == nil || rec.State.Ended() {
			continue
		}
		counts[rec.State.Stage.String()]++
	}
	return counts, nil
}

func (m *Manager) acquire(ctx context.Context, callID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, m.opts.LockTimeout)
	defer cancel()

	release, err := m.locker.Acquire(lockCtx, callLockPrefix+callID)
	if err != nil {
		m.log.WarnContext(ctx, "failed to acquire call lock", slog.String("call_id", callID), slog.Any("error", err))
		if errors.Is(err, lock.ErrLockTimeout) {
			return nil, apperrors.NewStateError("another operation is still running for this call")
		}
		return nil, err
	}
	return release, nil
}

func (m *Manager) save(ctx context.Context, rec *Record) error {
	return apperrors.WithRetryPolicy(ctx, m.opts.SaveRetry, func() error {
		if err := m.store.Save(ctx, rec); err != nil {
			return apperrors.NewStoreError("session save", err)
		}
		return nil
	})
}

func (m *Manager) load(ctx context.Context, callID string) (*Record, error) {
	rec, err := m.store.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, ErrCallNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, apperrors.NewStoreError("session get", err)
	}
	if rec.State == nil {
		return nil, ErrCallNotFound
	}
	return rec, nil
}

func withCallID(ctx context.Context, callID string) context.Context {
	if logger.CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return logger.WithCorrelationID(ctx, callID)
}
