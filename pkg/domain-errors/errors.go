// Package domainerrors defines the coded error type shared by all services.
//
// Services return these errors; the HTTP layer maps codes to status codes and
// a JSON envelope. Stores do NOT use this package — they return sentinel
// errors (pkg/platform/sentinel) which services translate here, keeping the
// storage layer free of transport concerns.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the category of a domain error.
type Code string

const (
	// CodeValidation marks malformed or missing input fields.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks requests that could not be decoded at all.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks references to entities that do not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks uniqueness violations (duplicate ICCID, duplicate
	// contact index) and delete conflicts.
	CodeConflict Code = "conflict"
	// CodeBusy marks operations rejected because a conflicting operation is
	// already in flight (one clone per source card at a time).
	CodeBusy Code = "busy"
	// CodeTimeout marks operations aborted by a deadline.
	CodeTimeout Code = "timeout"
	// CodeInvariantViolation marks broken domain invariants detected in
	// entity constructors or state transitions.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected infrastructure failures. Messages for
	// this code are never surfaced to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to callers except
// when Code is CodeInternal.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message while preserving the cause for
// errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, wrapped: err}
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.wrapped
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf extracts the outermost domain error code, defaulting to
// CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the outermost domain error message, or an empty string
// for unclassified errors.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeBusy:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
