// Package errors holds the generic error-wrapping machinery the FatError
// sentinels declared in errno.go build on: every const in errno.go already
// satisfies DriverError through the methods on FatError, so callers layer
// extra context onto a sentinel with WithMessage/WrapError without losing
// errors.Is compatibility with the original sentinel.
package errors

import "fmt"

type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
}

// -----------------------------------------------------------------------------

// customDriverError is what WithMessage/WrapError build on top of a FatError
// sentinel; it carries the extended message plus the error it wraps, which
// Unwrap exposes so errors.Is(err, ErrNotFound) still sees through it.
type customDriverError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customDriverError) Error() string {
	return e.message
}

// WithMessage appends extra context to an already-wrapped error, e.g. a path
// or cluster index a FatError sentinel like ErrNotFound doesn't carry.
func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
