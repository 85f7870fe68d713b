// Package util provides shared error types, context helpers, and the
// response envelope for the gateway.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrServiceNotRegistered.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., BackendError). Each type implements
//     Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
package util

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common sentinel errors. Each maps to exactly one HTTP status on the
// gateway's own error envelope.
var (
	ErrServiceNotRegistered = errors.New("service not registered")
	ErrBackendUnreachable   = errors.New("backend unreachable")
	ErrBackendTimeout       = errors.New("backend timeout")
	ErrTokenMissing         = errors.New("token missing")
	ErrTokenMalformed       = errors.New("token malformed")
	ErrTokenExpired         = errors.New("token expired")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("validation failed")
)

// HTTPStatus maps a gateway error to its HTTP status code. Unrecognized
// errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrServiceNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, ErrBackendUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrBackendTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// BackendError represents a failed downstream call.
type BackendError struct {
	Service string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("backend %s error: %s: %v", e.Service, e.Message, e.Cause)
	}
	return fmt.Sprintf("backend %s error: %s", e.Service, e.Message)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *BackendError) Is(target error) bool {
	if target == ErrBackendUnreachable {
		return true
	}
	_, ok := target.(*BackendError)
	return ok || errors.Is(e.Cause, target)
}

// NewBackendError creates a new BackendError.
func NewBackendError(service, message string, cause error) *BackendError {
	return &BackendError{Service: service, Message: message, Cause: cause}
}

// TimeoutError represents a downstream call that exceeded its deadline.
type TimeoutError struct {
	Service  string
	Duration time.Duration
	Cause    error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("call to %s timed out after %v", e.Service, e.Duration)
}

// Unwrap returns the underlying error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if target == ErrBackendTimeout {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok || errors.Is(e.Cause, target)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(service string, duration time.Duration, cause error) *TimeoutError {
	return &TimeoutError{Service: service, Duration: duration, Cause: cause}
}

// ValidationError represents a request validation failure.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s (fields: %v)", e.Message, e.Fields)
}

// Is checks if the error matches the target.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: make(map[string]string)}
}

// AddField adds a field error.
func (e *ValidationError) AddField(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
