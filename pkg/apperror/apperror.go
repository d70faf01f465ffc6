// Package apperror defines the closed set of failure kinds the service
// returns. Every core operation fails with one of these values so handlers
// can map errors to responses in one place instead of sniffing strings.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure kind on the wire.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "RESOURCE_NOT_FOUND"
	CodeForbidden     Code = "FORBIDDEN"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeAuthInvalid   Code = "AUTH_INVALID"
	CodeTokenInvalid  Code = "INVALID_TOKEN"
	CodeTokenExpired  Code = "TOKEN_EXPIRED"
	CodeNoToken       Code = "NO_TOKEN"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// Error is a typed failure with a fixed shape: code, HTTP status class,
// message and optional details. The wrapped cause, if any, is kept for
// logging but never serialized.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on code so callers can compare against sentinel constructors
// with errors.Is regardless of message or details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy carrying an extra detail field.
func (e *Error) WithDetail(key string, value any) *Error {
	clone := *e
	clone.Details = map[string]any{}
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

func Validation(msg string) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func StateConflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeStateConflict, Message: msg}
}

func AuthInvalid(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeAuthInvalid, Message: msg}
}

func TokenInvalid(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeTokenInvalid, Message: msg}
}

func TokenExpired(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeTokenExpired, Message: msg}
}

func NoToken(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeNoToken, Message: msg}
}

func Internal(msg string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: msg, cause: cause}
}

// From extracts the typed error from err, folding anything unrecognized
// into an internal error so no raw cause leaks to clients.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("unexpected error", err)
}
