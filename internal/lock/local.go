package lock

import (
	"context"
	"sync"
)

// LocalLocker serialises holders of the same key within one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.waiters++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.forget(key, s)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.forget(key, s)
		})
	}, nil
}

func (l *LocalLocker) forget(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, key)
	}
}
