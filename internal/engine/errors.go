package engine

import (
	"context"
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while driving a run.
//
// Runtime errors are failures, never heuristic gaps:
//   - Invalid program: the program cannot be digested
//   - Architecture mismatch: analyzer and run disagree on architecture
//   - Record failed: the recorder rejected a result
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidProgram indicates the program could not be digested.
	ErrCodeInvalidProgram RuntimeErrorCode = "INVALID_PROGRAM"

	// ErrCodeArchitectureMismatch indicates the analyzer was built for a
	// different architecture than the run's module.
	ErrCodeArchitectureMismatch RuntimeErrorCode = "ARCHITECTURE_MISMATCH"

	// ErrCodeRecordFailed indicates the recorder returned an error.
	ErrCodeRecordFailed RuntimeErrorCode = "RECORD_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a cancellation rather than a failure.
// Matches context.Canceled and context.DeadlineExceeded, wrapped or not.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsRecordError returns true if the error is a recorder failure.
// Uses errors.As to handle wrapped errors.
func IsRecordError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRecordFailed
	}
	return false
}
