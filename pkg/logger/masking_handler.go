package logger

import (
	"context"
	"log/slog"
	"strings"
)

const maskedValue = "***"

var sensitiveKeys = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"authorization",
	"dsn",
	"database_url",
	"license_number",
	"operator_license",
	"operator_phone",
	"policy_number",
}

// MaskingHandler wraps a slog.Handler and masks sensitive attributes before delegating.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler creates a handler that masks sensitive fields before passing records downstream.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

// Enabled reports whether the handler handles records at the given level.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// WithAttrs masks attrs bound with Logger.With as well.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = maskAttr(attr)
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked)}
}

// WithGroup returns a new handler with an appended group name.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

// Handle applies masking to sensitive attributes and delegates to the wrapped handler.
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(maskAttr(attr))
		return true
	})

	return h.next.Handle(ctx, masked)
}

func maskAttr(attr slog.Attr) slog.Attr {
	if isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, maskedValue)
	}

	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		masked := make([]any, len(group))
		for i, a := range group {
			masked[i] = maskAttr(a)
		}
		return slog.Group(attr.Key, masked...)
	}

	return attr
}

func isSensitiveKey(key string) bool {
	for _, sensitive := range sensitiveKeys {
		if strings.EqualFold(key, sensitive) {
			return true
		}
	}
	return false
}
