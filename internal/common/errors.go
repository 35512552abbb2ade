// Package common defines the error kinds shared by handlers and services.
// Callers should match kinds with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// Error pairs an error kind with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, format, args...)
}

// PublicMessage returns the client-facing message of err, or fallback when
// err carries none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
