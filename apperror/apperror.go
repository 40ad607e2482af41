// Package apperror defines the error taxonomy crossing the service boundary.
// Services classify failures into kinds; the API layer maps kinds to HTTP
// statuses. No internal detail leaks past the Message.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound          Kind = "not_found"
	Forbidden         Kind = "forbidden"
	InvalidArgument   Kind = "invalid_argument"
	InsufficientStock Kind = "insufficient_stock"
	EmptyCart         Kind = "empty_cart"
	InvalidTransition Kind = "invalid_transition"
	Unauthorized      Kind = "unauthorized"
	Conflict          Kind = "conflict"
	StorageFailure    Kind = "storage_failure"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error without losing its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or StorageFailure for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return StorageFailure
}

// MessageOf returns the user-facing message for err. Unclassified
// errors get a generic message so internals stay hidden.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
