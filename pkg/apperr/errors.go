// Package apperr defines the error taxonomy shared by every handler: each kind maps to one HTTP
// status and one stable error code rendered in the response envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindNotFound
)

// Error codes rendered in {"error": {"code": ...}}.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

// InternalMessage is the only message clients ever see for unclassified failures.
const InternalMessage = "Internal server error"

// Error is a classified error carrying the message shown to the client.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable error code for the error kind.
func (e *Error) Code() string {
	switch e.Kind {
	case KindUnauthenticated:
		return CodeUnauthorized
	case KindForbidden:
		return CodeForbidden
	case KindValidation:
		return CodeValidation
	case KindNotFound:
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// Unauthenticated returns a 401 error for a caller that could not be identified.
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

// Forbidden returns a 403 error for an identified caller lacking the required role.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// Validation returns a 400 error for malformed or out-of-range input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Validationf formats a validation message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a 404 error for a record missing from the caller's tenant.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// As extracts a classified error from err. Unclassified errors come back as a KindInternal
// error with the generic message; ok reports whether err was classified.
func As(err error) (e *Error, ok bool) {
	if errors.As(err, &e) {
		return e, true
	}
	return &Error{Kind: KindInternal, Message: InternalMessage}, false
}

// IsKind reports whether err is a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
