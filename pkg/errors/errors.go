// Package errors defines the sentinel errors shared across the indexing
// pipeline, plus a wrapper type carrying a human-readable message. Callers
// classify failures with errors.Is / errors.As.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a field or group name/id is not declared
	// in the schema, or a document field is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned when a value's shape is incompatible
	// with a field's repeatability or kind.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAnalyzerNotFound is returned when an analyzer chain references an
	// identifier no factory is registered for. Raised at chain-resolution
	// time, before any document is processed.
	ErrAnalyzerNotFound = errors.New("analyzer not found")
	// ErrStore wraps failures from the store adapter.
	ErrStore = errors.New("store error")
	// ErrInternal covers unexpected internal failures.
	ErrInternal = errors.New("internal error")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument reports whether err is (or wraps) ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
