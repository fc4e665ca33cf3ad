package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindBadRequest    Kind = "bad_request"
	KindConflict      Kind = "conflict"
	KindForbidden     Kind = "forbidden"
	KindInvalidFormat Kind = "invalid_format"
	KindInternal      Kind = "internal"
)

// Error is a typed failure carrying a human-readable reason and optional details
// (for example the conflicting appointments of a rejected booking).
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	err     error
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) *Error      { return New(KindNotFound, message) }
func BadRequest(message string) *Error    { return New(KindBadRequest, message) }
func Conflict(message string) *Error      { return New(KindConflict, message) }
func InvalidFormat(message string) *Error { return New(KindInvalidFormat, message) }
func Forbidden(message string) *Error     { return New(KindForbidden, message) }

// Wrap converts err into an Error of the given kind, keeping it in the chain.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches another *Error with the same kind and, when the target has one, the same message.
// This lets a sentinel match copies that carry per-call details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy of e with a more specific message. The copy no longer
// matches e by message, only by kind.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
