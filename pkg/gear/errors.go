package gear

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGearGeometry reports parameters that cannot describe a
	// globoid worm, most notably a non-integral total tooth count.
	ErrInvalidGearGeometry = errors.New("invalid gear geometry")

	// ErrInvalidFalloffRate reports a falloff rate strictly between 0 and 1.
	ErrInvalidFalloffRate = errors.New("invalid falloff rate")
)

// ValidationError describes a rejected parameter. It unwraps to one of the
// package sentinels so callers can match with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalidGeometry(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg, Err: ErrInvalidGearGeometry}
}
