package tracking

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/trackcse/internal/ir"
)

// ErrorCode categorizes tracking inconsistencies.
type ErrorCode string

const (
	// ErrCodeErasedWithoutReplacement indicates a tracked operation was
	// erased without first being replaced. Its pairs were dropped.
	ErrCodeErasedWithoutReplacement ErrorCode = "ERASED_WITHOUT_REPLACEMENT"

	// ErrCodeReplacementKindMismatch indicates a tracked operation was
	// replaced by an operation of another kind. Its pairs were dropped.
	ErrCodeReplacementKindMismatch ErrorCode = "REPLACEMENT_KIND_MISMATCH"

	// ErrCodeMappingFailed indicates the mapping returned an error.
	ErrCodeMappingFailed ErrorCode = "MAPPING_FAILED"
)

// ConsistencyError reports a mapping that could not be kept in step with
// the IR.
type ConsistencyError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op is the affected operation.
	Op ir.OpID

	// Kind is the affected operation's kind.
	Kind string

	// Keys are the keys that lost their association, if any.
	Keys []Key

	// Err is the underlying mapping error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("%s: %s (op=%s#%d", e.Code, e.Message, e.Kind, e.Op)
	if len(e.Keys) > 0 {
		keys := make([]string, len(e.Keys))
		for i, k := range e.Keys {
			keys[i] = string(k)
		}
		msg += ", keys=" + strings.Join(keys, ",")
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying mapping error.
func (e *ConsistencyError) Unwrap() error { return e.Err }

// IsTrackingError returns true if err is or wraps a ConsistencyError.
// Uses errors.As to handle wrapped and joined errors.
func IsTrackingError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// IsErasedWithoutReplacement returns true if any error in err's tree
// reports a tracked operation erased without replacement.
func IsErasedWithoutReplacement(err error) bool {
	return slices.Contains(Codes(err), ErrCodeErasedWithoutReplacement)
}

// Codes returns the codes of every ConsistencyError in err's tree, in
// order. Joined errors are expanded.
func Codes(err error) []ErrorCode {
	var out []ErrorCode
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case nil:
		case *ConsistencyError:
			out = append(out, x.Code)
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				walk(inner)
			}
		default:
			walk(errors.Unwrap(e))
		}
	}
	walk(err)
	return out
}
