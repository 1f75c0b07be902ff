// Package apperr defines the canonical application error model: stable codes,
// HTTP status mapping, and fluent helpers for building structured errors that
// handlers and middleware serialize to clients.
package apperr

import (
	"fmt"
)

// Suggestion is a per-field hint attached to validation errors.
type Suggestion struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is the error shape used across services and handlers.
type AppError struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	HTTPStatus  int          `json:"-"`
	cause       error
	ec          *ErrorCode
}

// New creates an AppError from an ErrorCode.
func New(ec *ErrorCode) *AppError {
	if ec == nil {
		ec = ErrorCodeInternal
	}
	return &AppError{
		Code:       ec.Code(),
		Message:    ec.Message(),
		HTTPStatus: ec.HTTPStatus(),
		ec:         ec,
	}
}

// Newf creates an AppError with a formatted message.
func Newf(ec *ErrorCode, format string, args ...interface{}) *AppError {
	a := New(ec)
	a.Message = fmt.Sprintf(format, args...)
	return a
}

// FromError wraps a generic error into an AppError. Unknown errors map to
// internal_error with the generic client message; the cause stays attached
// for logs only, never serialized.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return ae
	}
	a := New(ErrorCodeInternal)
	a.cause = err
	a.Message = ErrorCodeInternal.Message()
	return a
}

// Is reports whether err is an AppError carrying the given code.
func Is(err error, ec *ErrorCode) bool {
	ae, ok := err.(*AppError)
	return ok && ec != nil && ae.Code == ec.Code()
}

// AddSuggestion appends a field suggestion (fluent).
func (a *AppError) AddSuggestion(field, message string) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.Suggestions = append(a.Suggestions, Suggestion{Field: field, Message: message})
	return a
}

func (a *AppError) Error() string {
	if a == nil {
		return "<nil>"
	}
	if a.cause != nil {
		return a.cause.Error()
	}
	return a.Message
}

// WithStatus overrides the HTTP status (fluent).
func (a *AppError) WithStatus(status int) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithStatus(status)
	}
	a.HTTPStatus = status
	return a
}

// WithMessage overrides the client-facing message (fluent).
func (a *AppError) WithMessage(msg string) *AppError {
	if a == nil {
		return New(ErrorCodeInternal).WithMessage(msg)
	}
	a.Message = msg
	return a
}

// WithCode replaces the underlying ErrorCode, resetting code/message/status.
func (a *AppError) WithCode(ec *ErrorCode) *AppError {
	if ec == nil {
		ec = ErrorCodeInternal
	}
	if a == nil {
		return New(ec)
	}
	a.ec = ec
	a.Code = ec.Code()
	a.Message = ec.Message()
	a.HTTPStatus = ec.HTTPStatus()
	return a
}

// Wrap records the underlying cause and returns the same AppError.
func (a *AppError) Wrap(err error) *AppError {
	if a == nil {
		a = New(ErrorCodeInternal)
	}
	a.cause = err
	return a
}

// Unwrap exposes the cause to errors.Is/As.
func (a *AppError) Unwrap() error { return a.cause }
