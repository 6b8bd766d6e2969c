// Package apperr classifies errors so the HTTP layer can map them to status
// codes without knowing which package produced them.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code a response for this kind carries.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error whose message is safe to show to clients.
type Error struct {
	kind Kind
	msg  string
}

// New returns a classified error. Use it for package-level sentinels.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind reports the category of e.
func (e *Error) Kind() Kind { return e.kind }

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first classified error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// Validation, NotFound and the helpers below build one-off classified errors.
func Validation(msg string) error { return New(KindValidation, msg) }

func NotFound(msg string) error { return New(KindNotFound, msg) }

func Forbidden(msg string) error { return New(KindForbidden, msg) }

func Conflict(msg string) error { return New(KindConflict, msg) }

// External wraps a provider failure. The provider detail stays in the chain
// for logging; the client sees only msg.
func External(msg string, cause error) error {
	return &externalError{msg: msg, cause: cause}
}

type externalError struct {
	msg   string
	cause error
}

func (e *externalError) Error() string { return e.msg }

func (e *externalError) Kind() Kind { return KindExternal }

func (e *externalError) Unwrap() error { return e.cause }

// PublicMessage returns the client-facing message for err. Unclassified
// errors never leak their text.
func PublicMessage(err error) string {
	var k kinded
	if errors.As(err, &k) && k.Kind() != KindInternal {
		if e, ok := k.(error); ok {
			return e.Error()
		}
	}
	return "Internal server error"
}
