package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure for API mapping and logging.
type ErrorCode string

const (
	// ErrValidation marks a malformed request or message body.
	ErrValidation ErrorCode = "VALIDATION"
	// ErrNotFound marks a lookup of an unknown federation or workload.
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrConflict marks a duplicate join or a leave by a non-member.
	ErrConflict ErrorCode = "CONFLICT"
	// ErrForbidden marks a policy mutation attempted by a non-member.
	ErrForbidden ErrorCode = "FORBIDDEN"
	// ErrTransport marks a send or connect failure. Transport errors are
	// logged and converted into a disconnect; they never reach API callers.
	ErrTransport ErrorCode = "TRANSPORT"
	// ErrInternal is the fallback for everything else.
	ErrInternal ErrorCode = "INTERNAL"
)

// Error is a structured error carrying a code and an optional cause.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus overrides the HTTP status the API layer would derive
// from the code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// CodeOf extracts the error code from err, or ErrInternal if err is not
// a *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// HTTPStatusOf maps err to the HTTP status the API surface reports.
func HTTPStatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		if e.HTTPStatus != 0 {
			return e.HTTPStatus
		}
		switch e.Code {
		case ErrValidation:
			return http.StatusBadRequest
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrForbidden:
			return http.StatusForbidden
		case ErrTransport:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}
