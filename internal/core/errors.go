package core

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a failure with a kind the API layer maps to a status code. The
// message is safe to show to callers; the wrapped cause is not.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the kind sentinels, so errors.Is(err, ErrNotFound) holds for any
// not found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

var (
	ErrInternal   = &Error{Kind: KindInternal}
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrConflict   = &Error{Kind: KindConflict}
)

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return newf(KindValidation, format, args...)
}

func Authf(format string, args ...any) error {
	return newf(KindAuth, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newf(KindNotFound, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newf(KindForbidden, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newf(KindConflict, format, args...)
}

func Internal(message string, cause error) error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf reports the kind of the first *Error in the chain. Errors that carry
// no kind are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the text that may be returned to a caller for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
