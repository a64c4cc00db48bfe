// Package apperrors defines the error kinds shared by services and repositories.
// Transport layers map a Code to a status; nothing in this package knows about HTTP.
package apperrors

import "errors"

// Code is a machine-readable error kind.
type Code string

const (
	CodeUnknown        Code = "UNKNOWN"
	CodeValidation     Code = "VALIDATION"
	CodeAuthentication Code = "AUTHENTICATION"
	CodeAuthorization  Code = "AUTHORIZATION"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodePersistence    Code = "PERSISTENCE"
)

// MsgInvalidCredentials is returned for every access-token failure.
const MsgInvalidCredentials = "could not validate credentials"

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Client-safe message
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Validation(message string) *Error     { return New(CodeValidation, message) }
func Authentication(message string) *Error { return New(CodeAuthentication, message) }
func Authorization(message string) *Error  { return New(CodeAuthorization, message) }
func NotFound(message string) *Error       { return New(CodeNotFound, message) }
func Conflict(message string) *Error       { return New(CodeConflict, message) }

func Persistence(message string, cause error) *Error {
	return Wrap(CodePersistence, message, cause)
}

// InvalidCredentials is the single authentication failure surfaced for token problems.
func InvalidCredentials() *Error {
	return Authentication(MsgInvalidCredentials)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the client-safe message of err, or fallback when err is not an *Error.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
