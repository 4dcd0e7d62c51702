package lifecycle

import (
	"context"
	"io"
)

// Hook describes a named shutdown hook.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// CloserHook adapts an io.Closer, such as a Redis client or *sql.DB, to a hook function.
func CloserHook(c io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return c.Close()
	}
}
