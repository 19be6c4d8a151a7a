package utils

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks unrecognised or out-of-range option values; such
// requests are rejected before any processing starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrInvalidData marks malformed signal input (empty signal, baseline window
// beyond the signal length).
var ErrInvalidData = errors.New("invalid data")

// ConfigErrorf wraps ErrInvalidConfig with a formatted cause.
func ConfigErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// DataErrorf wraps ErrInvalidData with a formatted cause.
func DataErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
