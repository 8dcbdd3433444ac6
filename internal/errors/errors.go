// Package errors defines the application error taxonomy shared by the
// orchestrator, dispatcher, and HTTP layer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeScrapeFailed indicates the scraper failed fatally with zero usable records.
	ErrCodeScrapeFailed ErrorCode = "scrape_failed"
	// ErrCodeTransientSend indicates a retryable delivery failure.
	ErrCodeTransientSend ErrorCode = "transient_send"
	// ErrCodePermanentSend indicates a delivery failure that must not be retried.
	ErrCodePermanentSend ErrorCode = "permanent_send"
	// ErrCodePersistence indicates the store rejected or lost a write; fatal to the enclosing operation.
	ErrCodePersistence ErrorCode = "persistence"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Internal creates a new Internal error wrapping a cause.
func Internal(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Cause: cause}
}

// ScrapeFailed wraps a fatal scraper error: the scrape produced zero usable
// records and the owning job must fail.
func ScrapeFailed(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeScrapeFailed, Message: message, Cause: cause}
}

// TransientSend wraps a retryable delivery failure.
func TransientSend(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeTransientSend, Message: message, Cause: cause}
}

// PermanentSend wraps a delivery failure that must not consume retry budget.
func PermanentSend(message string, cause error) *AppError {
	return &AppError{Code: ErrCodePermanentSend, Message: message, Cause: cause}
}

// Persistence wraps a store failure that is fatal to the enclosing operation.
func Persistence(message string, cause error) *AppError {
	return &AppError{Code: ErrCodePersistence, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) an AppError,
// ErrCodeInternal otherwise.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsTransientSend reports whether err is a retryable delivery failure. Unknown
// errors count as transient so that flaky transports get their retry budget.
func IsTransientSend(err error) bool {
	switch CodeOf(err) {
	case ErrCodePermanentSend, ErrCodeValidation, ErrCodeCanceled:
		return false
	default:
		return true
	}
}

// IsPermanentSend reports whether err must skip the retry budget entirely.
func IsPermanentSend(err error) bool {
	return CodeOf(err) == ErrCodePermanentSend
}

// IsScrapeFailed reports whether err is a fatal scrape failure.
func IsScrapeFailed(err error) bool {
	return CodeOf(err) == ErrCodeScrapeFailed
}
