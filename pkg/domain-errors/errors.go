// Package domainerrors provides coded errors for the service layer.
//
// Stores return pkg/platform/sentinel errors; services translate them into
// coded errors here. The HTTP layer maps codes to status codes in exactly one
// place, so handlers never hand-pick status codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and caller retry decisions.
type Code string

const (
	// CodeBadRequest covers malformed or missing request input.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidDescriptor covers face descriptors of the wrong shape.
	// Kept distinct from CodeBadRequest so capture clients can react to it.
	CodeInvalidDescriptor Code = "invalid_descriptor"
	// CodeUnauthorized covers missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers role or tenant-scope violations.
	CodeForbidden Code = "forbidden"
	// CodeNotFound covers references to absent entities.
	CodeNotFound Code = "not_found"
	// CodeConflict covers uniqueness violations and lost writes.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation covers domain model invariant breaches.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal covers storage and other infrastructure failures.
	// Safe for the caller to retry.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Cause is optional and preserved for
// errors.Is / errors.As chains.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code carried by err, or CodeInternal if err is not a
// coded error. Unclassified failures are treated as infrastructure faults.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
