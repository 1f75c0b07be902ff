// Package errors provides error wrapping with captured stack traces for
// internal diagnostics. Client-facing errors are built with pkg/apperr; this
// package annotates the causes that end up in logs.
package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// Error wraps an error with a message and stack trace.
type Error struct {
	msg   string
	err   error
	stack string
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// StackTrace returns the capture site of the wrap.
func (e *Error) StackTrace() string { return e.stack }

// Wrap wraps err with msg and a stack trace. Returns nil for a nil err.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{msg: msg, err: err, stack: callers()}
}

// Wrapf wraps err with a formatted message and a stack trace.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{msg: fmt.Sprintf(format, args...), err: err, stack: callers()}
}

// New creates a new error with a stack trace.
func New(msg string) error {
	return &Error{msg: msg, stack: callers()}
}

func callers() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}
