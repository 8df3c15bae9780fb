package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can apply different policies.
type ErrorKind string

const (
	KindUnknown    ErrorKind = "unknown"
	KindConfig     ErrorKind = "config"
	KindFetch      ErrorKind = "fetch"
	KindEvaluation ErrorKind = "evaluation"
	KindNotify     ErrorKind = "notify"
)

// Error is a classified error.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
