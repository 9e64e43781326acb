// Package apperror defines the error taxonomy shared by the bed, admission
// and visit domains, plus the mapping onto HTTP responses. Services return
// these errors; the echo error handler turns them into {message, code} JSON.
package apperror

import (
	"errors"
	"fmt"
)

// Stable wire codes carried in error responses.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION"
	CodeBedUnavailable    = "BED_UNAVAILABLE"
	CodeInvalidState      = "INVALID_STATE"
	CodeAlreadyDischarged = "ALREADY_DISCHARGED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInternal          = "INTERNAL"
)

// Error is a typed application error with a stable wire code.
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// NotFound reports a missing entity, e.g. NotFound("bed", id).
func NotFound(entity string, id interface{}) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// Conflict reports a state conflict with one of the conflict codes
// (CodeBedUnavailable, CodeInvalidState, CodeAlreadyDischarged).
func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidTransition reports an illegal status change.
func InvalidTransition(from, to string) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// Internal wraps an unexpected failure. The handler renders it as an opaque
// 500; the cause stays available for logging via Unwrap.
func Internal(err error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "internal server error",
		err:     err,
	}
}

// Wrap attaches an underlying cause while keeping the code and message.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, err: err}
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsCode reports whether err carries the given wire code.
func IsCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsConflict reports whether err carries one of the conflict codes.
func IsConflict(err error) bool {
	return IsCode(err, CodeBedUnavailable) ||
		IsCode(err, CodeInvalidState) ||
		IsCode(err, CodeAlreadyDischarged)
}
