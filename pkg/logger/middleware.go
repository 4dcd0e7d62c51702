package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// HeaderRequestID is read from and echoed to HTTP clients.
	HeaderRequestID   = "X-Request-ID"
	correlationIDAttr = "correlation_id"
)

// correlationIDKey marks the context storage slot for the correlation identifier.
type correlationIDKey struct{}

// CorrelationIDFromContext returns the correlation identifier stored in ctx, or an empty string when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}

	return ""
}

// WithCorrelationID stores id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// Middleware injects a correlation identifier into the request context before delegating to the next handler.
// A client supplied X-Request-ID is kept.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(HeaderRequestID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set(HeaderRequestID, correlationID)
		next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), correlationID)))
	})
}
