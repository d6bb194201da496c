// Package apperr carries expected failures (invalid input, missing rows, missing rights)
// out of the services together with the HTTP status the boundary should report.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalid      = "invalid_request"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodeUpstream     = "upstream_error"
	CodeInternal     = "internal_error"
)

type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func Invalid(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalid, fmt.Sprintf(format, args...), nil)
}

func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, CodeForbidden, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Sprintf(format, args...), nil)
}

func Upstream(message string, err error) *Error {
	return New(http.StatusBadGateway, CodeUpstream, message, err)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf maps err to an HTTP status; anything untyped is a 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// CodeOf maps err to a machine readable code.
func CodeOf(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return CodeInternal
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}
