package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps request timestamps per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	reqs := keepRecent(m.buckets[key], windowStart)

	allowed := len(reqs) < limit
	if allowed {
		reqs = append(reqs, now)
	}
	m.buckets[key] = reqs

	remaining := limit - len(reqs)
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(window)
	if len(reqs) > 0 {
		resetAt = reqs[0].Add(window)
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Cleanup removes keys without requests newer than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, reqs := range m.buckets {
		if len(reqs) == 0 || reqs[len(reqs)-1].Before(cutoff) {
			delete(m.buckets, key)
			removed++
		}
	}
	return removed
}

func keepRecent(reqs []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(reqs) && reqs[firstIdx].Before(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return reqs
	}

	if firstIdx >= len(reqs) {
		return reqs[:0]
	}

	copy(reqs, reqs[firstIdx:])
	return reqs[:len(reqs)-firstIdx]
}
