package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/rental-agent/pkg/logger"
	"github.com/Proton-105/rental-agent/pkg/metrics"
)

const timeoutUserMessage = "That is taking longer than expected. Please try again in a moment."

// Outcome is what the caller of a failed operation may be told.
type Outcome struct {
	Message   string
	Retryable bool
	Code      string
}

// Handler turns failures into caller-safe replies. Every failure is logged and
// counted; high and critical ones also go to Sentry when enabled.
type Handler struct {
	log    *slog.Logger
	report bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{log: log, report: sentryEnabled}
}

// Handle records err and returns the reply for the caller. A nil err yields a zero Outcome.
func (h *Handler) Handle(ctx context.Context, err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	appErr := classify(err)
	callID := logger.CorrelationIDFromContext(ctx)

	attrs := []slog.Attr{
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
		slog.String("error", err.Error()),
	}
	if callID != "" {
		attrs = append(attrs, slog.String("call_id", callID))
	}

	h.log.LogAttrs(ctx, levelFor(appErr.Severity), "operation failed", attrs...)
	metrics.RecordError(appErr.Code, string(appErr.Severity))

	if h.report && reportable(appErr.Severity) {
		capture(err, appErr, callID)
	}

	msg := appErr.UserMessage
	if msg == "" {
		msg = defaultUserMessage
	}

	return Outcome{Message: msg, Retryable: appErr.Retryable, Code: appErr.Code}
}

// classify finds the AppError in err's chain. Deadlines become retryable
// external failures; anything else is an unknown high severity error.
func classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:        CodeExternalAPI,
			Message:     err.Error(),
			UserMessage: timeoutUserMessage,
			Severity:    SeverityMedium,
			Retryable:   true,
			cause:       err,
		}
	}

	return &AppError{
		Code:     CodeUnknown,
		Message:  err.Error(),
		Severity: SeverityHigh,
		cause:    err,
	}
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func reportable(s Severity) bool {
	return s == SeverityHigh || s == SeverityCritical
}

func capture(err error, appErr *AppError, callID string) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("code", appErr.Code)
		scope.SetTag("severity", string(appErr.Severity))
		if callID != "" {
			scope.SetTag("call_id", callID)
		}
		if appErr.Severity == SeverityCritical {
			scope.SetLevel(sentry.LevelFatal)
		}
	})
	hub.CaptureException(err)
}
