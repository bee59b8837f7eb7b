// Package apperror defines the error kinds shared by services and adapters.
// Callers test for a kind with errors.Is and read the message from Error().
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUpstream        = errors.New("upstream failure")
	ErrTimeout         = errors.New("timeout")
	ErrConfiguration   = errors.New("configuration error")
)

type AppError struct {
	Err     error  // kind sentinel, or a wrapped cause that already carries one
	Message string // human-readable message
	Field   string // optional: offending input field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthenticated is returned when a call arrives without an identity.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Upstream wraps a failed call to an external API. cause stays reachable
// through errors.As so callers can still inspect status codes.
func Upstream(service string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrUpstream, cause),
		Message: fmt.Sprintf("%s request failed: %v", service, cause),
	}
}

func Timeout(operation string, after fmt.Stringer) *AppError {
	return &AppError{
		Err:     ErrTimeout,
		Message: fmt.Sprintf("%s timed out after %s", operation, after),
	}
}

func Configuration(message string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: message,
	}
}

// Kind returns a stable machine-readable name for err's kind, or "internal"
// when err carries none.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}
