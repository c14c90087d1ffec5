package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline and store failures.
type ErrorKind string

const (
	// ErrValidation marks bad or empty input. Never retried, always local.
	ErrValidation ErrorKind = "validation"
	// ErrTimeout marks an external call that exceeded its budget.
	ErrTimeout ErrorKind = "timeout"
	// ErrMalformedResponse marks an external response failing payload schema checks.
	ErrMalformedResponse ErrorKind = "malformed_response"
	// ErrPersistence marks an unreachable store or a rejected write.
	ErrPersistence ErrorKind = "persistence"
	// ErrNotFound marks a referenced dataset or report that does not exist.
	ErrNotFound ErrorKind = "not_found"
)

// Error is a classified error. Callers branch on Kind; the wrapped
// cause is preserved for logging.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error wrapping an optional cause.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or an empty kind for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsNotFound reports whether err is classified as not_found.
func IsNotFound(err error) bool { return KindOf(err) == ErrNotFound }

// IsValidation reports whether err is classified as validation.
func IsValidation(err error) bool { return KindOf(err) == ErrValidation }
