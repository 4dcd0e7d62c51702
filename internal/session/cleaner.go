package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/rental-agent/internal/lock"
	"github.com/Proton-105/rental-agent/pkg/metrics"
)

const cleanupLockTimeout = 100 * time.Millisecond

// ReasonIdleTimeout is recorded for calls evicted without reaching call_ended.
const ReasonIdleTimeout = "idle_timeout"

// Cleaner removes sessions untouched for longer than the TTL. Ended calls are
// kept until then so late operations still see ErrCallEnded.
type Cleaner struct {
	store    Store
	locker   lock.Locker
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewCleaner(store Store, locker lock.Locker, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		store:    store,
		locker:   locker,
		log:      log,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.store == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) int {
	if c.ttl <= 0 {
		return 0
	}

	records, err := c.store.List(ctx)
	if err != nil {
		c.log.Error("session cleaner list failed", slog.Any("error", err))
		return 0
	}

	removed := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			return removed
		}
		if !c.expired(rec) {
			continue
		}

		ok, err := c.evict(ctx, rec.CallID)
		if err != nil {
			c.log.Error("session cleaner failed to delete session", slog.String("call_id", rec.CallID), slog.Any("error", err))
			continue
		}
		if ok {
			removed++
		}
	}

	return removed
}

func (c *Cleaner) expired(rec *Record) bool {
	return c.now().Sub(rec.UpdatedAt) > c.ttl
}

// evict deletes the call under its lock, re-reading it first. A call busy with
// an operation is skipped until the next pass.
func (c *Cleaner) evict(ctx context.Context, callID string) (bool, error) {
	lockCtx, cancel := context.WithTimeout(ctx, cleanupLockTimeout)
	defer cancel()

	release, err := c.locker.Acquire(lockCtx, callLockPrefix+callID)
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			c.log.Debug("session busy, skipping cleanup", slog.String("call_id", callID))
			return false, nil
		}
		return false, err
	}
	defer release()

	rec, err := c.store.Get(ctx, callID)
	if errors.Is(err, ErrCallNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !c.expired(rec) {
		return false, nil
	}

	if err := c.store.Delete(ctx, callID); err != nil {
		return false, err
	}

	ended := rec.State != nil && rec.State.Ended()
	if !ended {
		metrics.RecordCallEnded(ReasonIdleTimeout)
	}
	c.log.Info("session cleared", slog.String("call_id", callID), slog.Bool("ended", ended))

	return true, nil
}
