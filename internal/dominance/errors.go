package dominance

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes dominance failures.
type ErrorCode string

const (
	// ErrCodeUnreachableBlock indicates a block no path from the region
	// entry reaches.
	ErrCodeUnreachableBlock ErrorCode = "UNREACHABLE_BLOCK"

	// ErrCodeForeignSuccessor indicates a branch naming a block outside the
	// region that contains it.
	ErrCodeForeignSuccessor ErrorCode = "FOREIGN_SUCCESSOR"
)

// Error reports IR whose control flow cannot be analyzed.
type Error struct {
	Code    ErrorCode
	Message string

	// Region is "<op>/<index>" of the offending region.
	Region string

	// Block is the index of the offending block within Region.
	Block int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (region=%s, block=%d)", e.Code, e.Message, e.Region, e.Block)
}

// IsUnreachableError returns true if err is an unreachable block error.
// Uses errors.As to handle wrapped errors.
func IsUnreachableError(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == ErrCodeUnreachableBlock
	}
	return false
}
