package errors

import (
	"errors"
	"sync"
	"time"
)

const (
	ErrorThreshold      = 0.5
	MinRequests         = 10
	TimeoutDuration     = 30 * time.Second
	HalfOpenMaxRequests = 3
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

var (
	ErrCircuitOpen             = errors.New("circuit breaker is open")
	errHalfOpenTooManyRequests = errors.New("too many requests in half-open")
)

// BreakerConfig tunes a CircuitBreaker. Zero fields use the package defaults.
type BreakerConfig struct {
	ErrorThreshold      float64
	MinRequests         int
	OpenTimeout         time.Duration
	HalfOpenMaxRequests int
}

type CircuitBreaker struct {
	mu              sync.Mutex
	cfg             BreakerConfig
	state           State
	failures        int
	successes       int
	requests        int
	lastFailureTime time.Time
	now             func() time.Time
}

func NewCircuitBreaker() *CircuitBreaker {
	return NewCircuitBreakerWithConfig(BreakerConfig{})
}

func NewCircuitBreakerWithConfig(cfg BreakerConfig) *CircuitBreaker {
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = ErrorThreshold
	}
	if cfg.MinRequests <= 0 {
		cfg.MinRequests = MinRequests
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = TimeoutDuration
	}
	if cfg.HalfOpenMaxRequests <= 0 {
		cfg.HalfOpenMaxRequests = HalfOpenMaxRequests
	}

	return &CircuitBreaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}
}

// Call runs fn unless the breaker is open. Failures of fn count towards tripping it.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if fn == nil {
		return nil
	}

	cb.mu.Lock()
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailureTime) >= cb.cfg.OpenTimeout {
			cb.transitionToHalfOpenLocked()
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}

	if cb.state == StateHalfOpen && cb.requests >= cb.cfg.HalfOpenMaxRequests {
		cb.mu.Unlock()
		return errHalfOpenTooManyRequests
	}
	cb.mu.Unlock()

	callErr := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if callErr != nil {
		cb.failures++
		cb.requests++

		if cb.state == StateHalfOpen {
			cb.tripToOpenLocked()
		} else {
			cb.evaluateState()
		}

		return callErr
	}

	cb.successes++
	cb.requests++

	if cb.state == StateHalfOpen && cb.successes >= cb.cfg.HalfOpenMaxRequests {
		cb.state = StateClosed
		cb.resetCountersLocked()
	}

	return nil
}

func (cb *CircuitBreaker) evaluateState() {
	if cb.requests < cb.cfg.MinRequests {
		return
	}

	errorRate := float64(cb.failures) / float64(cb.requests)
	if errorRate >= cb.cfg.ErrorThreshold {
		cb.tripToOpenLocked()
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) resetCountersLocked() {
	cb.failures = 0
	cb.successes = 0
	cb.requests = 0
}

func (cb *CircuitBreaker) transitionToHalfOpenLocked() {
	cb.state = StateHalfOpen
	cb.resetCountersLocked()
}

func (cb *CircuitBreaker) tripToOpenLocked() {
	cb.state = StateOpen
	cb.lastFailureTime = cb.now()
	cb.resetCountersLocked()
}
