package lifecycle

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ComponentChecker is satisfied by *health.Checker.
type ComponentChecker interface {
	Check(ctx context.Context) (map[string]string, bool)
}

const componentShutdown = "shutdown"

// Probes reports readiness: the component checks, and not ready once shutdown began.
type Probes struct {
	checker      ComponentChecker
	log          *slog.Logger
	shuttingDown atomic.Bool
}

func NewProbes(checker ComponentChecker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// MarkShuttingDown makes every later Check report not ready.
func (p *Probes) MarkShuttingDown() {
	if p.shuttingDown.CompareAndSwap(false, true) {
		p.log.Info("readiness withdrawn for shutdown")
	}
}

// Check implements the readiness report consumed by the HTTP API.
func (p *Probes) Check(ctx context.Context) (map[string]string, bool) {
	results := map[string]string{}
	healthy := true

	if p.checker != nil {
		results, healthy = p.checker.Check(ctx)
	}

	if p.shuttingDown.Load() {
		results[componentShutdown] = "in progress"
		healthy = false
	}

	return results, healthy
}
