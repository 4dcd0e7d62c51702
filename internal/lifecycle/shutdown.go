// Package lifecycle coordinates process shutdown and readiness reporting.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Shutdown runs registered hooks in parallel once, bounded by the caller's context.
type Shutdown struct {
	mu     sync.Mutex
	hooks  []Hook
	log    *slog.Logger
	probes *Probes
	once   sync.Once
	err    error
}

// NewShutdown constructs a coordinator. probes, when set, stops reporting ready
// before the first hook runs.
func NewShutdown(log *slog.Logger, probes *Probes) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log, probes: probes}
}

// Register adds a named shutdown hook.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, Hook{Name: name, Fn: fn})
}

// Execute runs all hooks concurrently and waits for them. Later calls return the first result.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.execute(ctx)
	})
	return s.err
}

func (s *Shutdown) execute(ctx context.Context) error {
	if s.probes != nil {
		s.probes.MarkShuttingDown()
	}

	s.mu.Lock()
	hooks := append([]Hook(nil), s.hooks...)
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("hook_count", len(hooks)))

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)

	for _, h := range hooks {
		wg.Add(1)
		go func(h Hook) {
			defer wg.Done()

			s.log.Info("running shutdown hook", slog.String("hook", h.Name))

			if err := h.Fn(ctx); err != nil {
				s.log.Error("shutdown hook failed", slog.String("hook", h.Name), slog.Any("error", err))
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
				errMu.Unlock()
				return
			}

			s.log.Info("shutdown hook completed", slog.String("hook", h.Name))
		}(h)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Error("shutdown deadline exceeded", slog.Duration("elapsed", time.Since(start)))
		errMu.Lock()
		errs = append(errs, ctx.Err())
		errMu.Unlock()
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))

	errMu.Lock()
	defer errMu.Unlock()
	return errors.Join(errs...)
}
