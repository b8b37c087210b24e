package cse

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine failures.
type ErrorCode string

const (
	// ErrCodeDominanceUnavailable indicates dominance information could not
	// be computed for the root.
	ErrCodeDominanceUnavailable ErrorCode = "DOMINANCE_UNAVAILABLE"

	// ErrCodeUnreachableBlock indicates a block the dominator tree never
	// reaches.
	ErrCodeUnreachableBlock ErrorCode = "UNREACHABLE_BLOCK"

	// ErrCodeNonDominatingMatch indicates a table hit whose candidate does
	// not dominate the operation being replaced.
	ErrCodeNonDominatingMatch ErrorCode = "NON_DOMINATING_MATCH"

	// ErrCodeMutationFailed indicates the IR refused a replacement or erase.
	ErrCodeMutationFailed ErrorCode = "IR_MUTATION_FAILED"
)

// Error is a precondition failure detected while rewriting.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op is the debug name of the operation being processed, if any.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg += fmt.Sprintf(" (op=%s)", e.Op)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsPreconditionError returns true if err came from the engine.
// Uses errors.As to handle wrapped errors.
func IsPreconditionError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// IsNonDominatingError returns true if err reports a non-dominating match.
func IsNonDominatingError(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNonDominatingMatch
	}
	return false
}

// NewNonDominatingError creates an Error for a candidate that does not
// dominate the duplicate it would replace.
func NewNonDominatingError(canon, dup fmt.Stringer) *Error {
	return &Error{
		Code:    ErrCodeNonDominatingMatch,
		Message: fmt.Sprintf("candidate %s does not dominate its duplicate", canon),
		Op:      dup.String(),
	}
}

// NewMutationError wraps an IR mutation failure.
func NewMutationError(op fmt.Stringer, err error) *Error {
	return &Error{
		Code:    ErrCodeMutationFailed,
		Message: "IR mutation failed",
		Op:      op.String(),
		Err:     err,
	}
}
