package errors

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes grouped by family.
const (
	CodeValidation  = "E100"
	CodeStore       = "E200"
	CodeExternalAPI = "E300"
	CodeState       = "E400"
	CodeRateLimit   = "E500"
	CodeUnknown     = "E999"
)

const defaultUserMessage = "Something went wrong on our side. Please try again in a moment."

// AppError is an error enriched with a caller-safe message and handling hints.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(field, msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     fmt.Sprintf("invalid %s: %s", field, msg),
		UserMessage: fmt.Sprintf("The %s doesn't look right. %s", humanize(field), msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewStoreError wraps an inventory or session backend failure.
func NewStoreError(op string, cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeStore,
		Message:     fmt.Sprintf("store error during %s: %s", op, underlyingMsg),
		UserMessage: "Our inventory system is temporarily unavailable. Please try again shortly.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternalAPI,
		Message:     fmt.Sprintf("external API error: %s", apiName),
		UserMessage: "A verification service is temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "That action isn't possible at this point of the call.",
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Please try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// Code returns the AppError code found in err's chain, or an empty string.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}

	return ""
}

func humanize(field string) string {
	out := []rune(field)
	for i, r := range out {
		if r == '_' {
			out[i] = ' '
		}
	}

	return string(out)
}
