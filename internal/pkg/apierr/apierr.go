// Package apierr carries the typed error taxonomy the HTTP layer maps onto
// status codes. Services return these; handlers never invent status codes of
// their own.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation  = "validation_error"
	CodeNotFound    = "not_found"
	CodeOwnership   = "ownership_error"
	CodeUpstream    = "upstream_error"
	CodePersistence = "persistence_error"
)

type Error struct {
	HTTPStatus int
	Code       string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("api error (%d)", e.HTTPStatus)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{HTTPStatus: status, Code: code, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// Ownership maps to 404 rather than 403 so callers cannot distinguish "absent"
// from "someone else's" and enumerate notification ids. The message still
// differs for the legitimate owner-side debugging path.
func Ownership(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeOwnership, fmt.Errorf(format, args...))
}

func Upstream(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstream, err)
}

func Persistence(err error) *Error {
	return New(http.StatusInternalServerError, CodePersistence, err)
}

// Status resolves the HTTP status for any error, defaulting to 500.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.HTTPStatus != 0 {
		return ae.HTTPStatus
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func Is(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
