// Package apperr classifies domain failures so transports can map them to
// caller-visible outcomes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

type classified struct {
	kind error
	msg  string
}

func (e *classified) Error() string { return e.msg }
func (e *classified) Unwrap() error { return e.kind }

func newf(kind error, format string, args ...any) error {
	return &classified{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error     { return newf(ErrNotFound, format, args...) }
func Forbidden(format string, args ...any) error    { return newf(ErrForbidden, format, args...) }
func InvalidState(format string, args ...any) error { return newf(ErrInvalidState, format, args...) }
func Validation(format string, args ...any) error   { return newf(ErrValidation, format, args...) }

// Message returns the caller-facing message of a classified error, or
// fallback for anything else.
func Message(err error, fallback string) string {
	var c *classified
	if errors.As(err, &c) {
		return c.msg
	}
	return fallback
}
