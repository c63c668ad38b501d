package transform

import (
	"errors"
	"fmt"
)

// ErrorKind classifies execution failures.
type ErrorKind string

const (
	KindInputMissing      ErrorKind = "input_missing"
	KindDecodeFailed      ErrorKind = "decode_failed"
	KindOperationFailed   ErrorKind = "operation_failed"
	KindTimeout           ErrorKind = "timeout"
	KindOutputNotProduced ErrorKind = "output_not_produced"
	KindEngineUnavailable ErrorKind = "engine_unavailable"
)

// ExecutionError is returned by every failed run. Diagnostics carries raw
// engine output for logs only and is never shown to callers.
type ExecutionError struct {
	Kind        ErrorKind
	Step        string
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *ExecutionError) Error() string {
	msg := string(e.Kind)
	if e.Step != "" {
		msg += " at " + e.Step
	}
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, step string, err error) *ExecutionError {
	return &ExecutionError{Kind: kind, Step: step, Err: err}
}

// IsKind reports whether err is an ExecutionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or the empty string.
func KindOf(err error) ErrorKind {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}
