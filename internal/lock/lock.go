// Package lock provides keyed mutual exclusion for inventory writes and call sessions.
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before the context expired.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker grants exclusive access to a key. The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}
