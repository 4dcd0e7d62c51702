package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/Proton-105/rental-agent/internal/errors"
)

// ErrUnavailable is returned by Guarded.GetByID when the backend cannot answer.
var ErrUnavailable = errors.New("inventory temporarily unavailable")

const defaultStoreTimeout = 5 * time.Second

// GuardOptions configures Guarded.
type GuardOptions struct {
	Timeout time.Duration
	Retry   apperrors.RetryPolicy
	Breaker *apperrors.CircuitBreaker
}

// Guarded bounds every backend call with a timeout, retries reads, trips a
// circuit breaker on repeated failures and degrades to well-formed results:
// empty listings, ErrUnavailable for lookups and false for reservations.
type Guarded struct {
	next    Store
	opts    GuardOptions
	errs    *apperrors.Handler
	log     *slog.Logger
	backend string
}

func NewGuarded(next Store, backend string, opts GuardOptions, errs *apperrors.Handler, log *slog.Logger) *Guarded {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultStoreTimeout
	}
	if opts.Breaker == nil {
		opts.Breaker = apperrors.NewCircuitBreaker()
	}
	if log == nil {
		log = slog.Default()
	}
	if errs == nil {
		errs = apperrors.NewHandler(log, false)
	}

	return &Guarded{
		next:    next,
		opts:    opts,
		errs:    errs,
		log:     log,
		backend: backend,
	}
}

func (g *Guarded) ListAll(ctx context.Context) ([]Equipment, error) {
	return g.list(ctx, "list_all", g.next.ListAll)
}

func (g *Guarded) ListAvailable(ctx context.Context) ([]Equipment, error) {
	return g.list(ctx, "list_available", g.next.ListAvailable)
}

func (g *Guarded) GetByID(ctx context.Context, id string) (*Equipment, error) {
	var eq *Equipment
	err := g.read(ctx, "get_by_id", func(ctx context.Context) error {
		found, err := g.next.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		eq = found
		return nil
	})
	if err != nil {
		return nil, ErrUnavailable
	}
	if eq == nil {
		return nil, ErrNotFound
	}

	return eq, nil
}

// TryReserve is attempted once. Retrying could misreport a reservation that
// committed just before the timeout as lost.
func (g *Guarded) TryReserve(ctx context.Context, id string, newStatus Status) (bool, error) {
	var reserved bool
	err := g.opts.Breaker.Call(func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()

		ok, err := g.next.TryReserve(callCtx, id, newStatus)
		if err != nil {
			return apperrors.NewStoreError("try_reserve", err)
		}
		reserved = ok
		return nil
	})
	if err != nil {
		g.degrade(ctx, "try_reserve", err)
		return false, nil
	}

	return reserved, nil
}

func (g *Guarded) list(ctx context.Context, op string, fn func(context.Context) ([]Equipment, error)) ([]Equipment, error) {
	var items []Equipment
	err := g.read(ctx, op, func(ctx context.Context) error {
		result, err := fn(ctx)
		if err != nil {
			return err
		}
		items = result
		return nil
	})
	if err != nil || items == nil {
		return []Equipment{}, nil
	}

	return items, nil
}

func (g *Guarded) read(ctx context.Context, op string, fn func(context.Context) error) error {
	err := g.opts.Breaker.Call(func() error {
		return apperrors.WithRetryPolicy(ctx, g.opts.Retry, func() error {
			callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
			defer cancel()

			if err := fn(callCtx); err != nil {
				return apperrors.NewStoreError(op, err)
			}
			return nil
		})
	})
	if err != nil {
		g.degrade(ctx, op, err)
	}

	return err
}

func (g *Guarded) degrade(ctx context.Context, op string, err error) {
	if errors.Is(err, apperrors.ErrCircuitOpen) {
		g.log.Warn("inventory circuit open, degrading", "backend", g.backend, "operation", op)
		return
	}

	g.errs.Handle(ctx, err)
	g.log.Warn("inventory call failed, degrading", "backend", g.backend, "operation", op)
}
