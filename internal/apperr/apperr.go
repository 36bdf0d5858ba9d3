// Package apperr defines the error kinds surfaced by the core engine.
//
// Every failure that crosses a package boundary is either a *Error with a
// Kind from the table below, or a wrapped error that unwraps to one. The
// API layer maps kinds to transport status codes; everything without a
// kind is treated as Internal and logged with a correlation id.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error for policy decisions at the boundary.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindUnauthorized     Kind = "unauthorized"
	KindInvalidAnswer    Kind = "invalid_answer"
	KindBadKind          Kind = "bad_kind"
	KindBadArgument      Kind = "bad_argument"
	KindAssessmentClosed Kind = "assessment_closed"
	KindAlreadyAnswered  Kind = "already_answered"
	KindNotInAssessment  Kind = "not_in_assessment"
	KindEmptyBank        Kind = "empty_bank"
	KindExhaustedBank    Kind = "exhausted_bank"
	KindCancelled        Kind = "cancelled"
	KindConflict         Kind = "conflict"
	KindInternal         Kind = "internal"
)

// Error is a kinded error with an optional wrapped cause.
type Error struct {
	Kind Kind
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

// E builds a kinded error with a formatted message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err. Context cancellation maps to
// KindCancelled; anything unclassified maps to KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
