// Package errors provides typed domain errors for the raid coordination core.
//
// Usage:
//
//	// In services - return typed errors
//	if roster.Has(memberID) {
//	    return errors.AlreadyJoinedf("member %s already joined", memberID)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrRaidNotFound) {
//	    ...
//	}
//
//	// Or switch on the Code
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodePastTime, errors.CodeAmbiguousOrTooFar:
//	        ...
//	    }
//	}
//
// Messages are technical; translating a Code into chat prose is the caller's job.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeRaidNotFound       Code = "RAID_NOT_FOUND"
	CodeAttendeeNotFound   Code = "ATTENDEE_NOT_FOUND"
	CodeAlreadyJoined      Code = "ALREADY_JOINED"
	CodeNotAttending       Code = "NOT_ATTENDING"
	CodeInvalidGroup       Code = "INVALID_GROUP"
	CodePastTime           Code = "PAST_TIME"
	CodeAmbiguousOrTooFar  Code = "AMBIGUOUS_OR_TOO_FAR"
	CodeOutOfOrder         Code = "OUT_OF_ORDER"
	CodeMalformedTimeInput Code = "MALFORMED_TIME_INPUT"
	CodeGymNotFound        Code = "GYM_NOT_FOUND"
	CodeValidation         Code = "VALIDATION"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeRaidNotFound, CodeAttendeeNotFound, CodeGymNotFound:
		return http.StatusNotFound
	case CodeAlreadyJoined, CodeNotAttending:
		return http.StatusConflict
	case CodeInvalidGroup, CodeMalformedTimeInput, CodeValidation:
		return http.StatusBadRequest
	case CodePastTime, CodeAmbiguousOrTooFar, CodeOutOfOrder:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus reports the HTTP status for transport layers that look for it.
func (e *Error) GetStatus() int {
	return e.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrRaidNotFound       = &Error{Code: CodeRaidNotFound, Message: "raid not found"}
	ErrAttendeeNotFound   = &Error{Code: CodeAttendeeNotFound, Message: "attendee not found"}
	ErrAlreadyJoined      = &Error{Code: CodeAlreadyJoined, Message: "already joined"}
	ErrNotAttending       = &Error{Code: CodeNotAttending, Message: "not attending"}
	ErrInvalidGroup       = &Error{Code: CodeInvalidGroup, Message: "invalid group"}
	ErrPastTime           = &Error{Code: CodePastTime, Message: "time is in the past"}
	ErrAmbiguousOrTooFar  = &Error{Code: CodeAmbiguousOrTooFar, Message: "time is ambiguous or too far ahead"}
	ErrOutOfOrder         = &Error{Code: CodeOutOfOrder, Message: "times out of order"}
	ErrMalformedTimeInput = &Error{Code: CodeMalformedTimeInput, Message: "malformed time input"}
	ErrGymNotFound        = &Error{Code: CodeGymNotFound, Message: "gym not found"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with the given code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RaidNotFoundf creates a raid not found error with formatted message.
func RaidNotFoundf(format string, args ...any) *Error {
	return Newf(CodeRaidNotFound, format, args...)
}

// AttendeeNotFoundf creates an attendee not found error with formatted message.
func AttendeeNotFoundf(format string, args ...any) *Error {
	return Newf(CodeAttendeeNotFound, format, args...)
}

// AlreadyJoinedf creates an already joined error with formatted message.
func AlreadyJoinedf(format string, args ...any) *Error {
	return Newf(CodeAlreadyJoined, format, args...)
}

// NotAttendingf creates a not attending error with formatted message.
func NotAttendingf(format string, args ...any) *Error {
	return Newf(CodeNotAttending, format, args...)
}

// InvalidGroupf creates an invalid group error with formatted message.
func InvalidGroupf(format string, args ...any) *Error {
	return Newf(CodeInvalidGroup, format, args...)
}

// OutOfOrderf creates an out of order error with formatted message.
func OutOfOrderf(format string, args ...any) *Error {
	return Newf(CodeOutOfOrder, format, args...)
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return New(CodeValidation, msg)
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// CodeOf returns the Code carried by err, or CodeInternal if err is not a domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
