package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/trackcse/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidDialectName = "E101" // dialect name is not an identifier
	ErrNoOps              = "E102" // dialect declares no ops
	ErrInvalidOpName      = "E103" // op name is not an identifier
	ErrDuplicateName      = "E104" // duplicate op name
	ErrInvalidEffect      = "E105" // effects not one of none/read/write/recursive
	ErrTerminatorEffects  = "E106" // terminator with effects other than none/write
	ErrReservedDialect    = "E107" // redefines a builtin dialect
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateOptions tunes ValidateDialect.
type ValidateOptions struct {
	// AllowBuiltinOverride permits dialects named like a builtin one.
	AllowBuiltinOverride bool
}

// ValidateDialect validates a compiled dialect.
// Returns all errors found (does not fail-fast).
func ValidateDialect(spec *ir.DialectSpec, opts ValidateOptions) []ValidationError {
	var errs []ValidationError

	if !identPattern.MatchString(spec.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("invalid dialect name %q", spec.Name),
			Code:    ErrInvalidDialectName,
		})
	}
	if !opts.AllowBuiltinOverride && isBuiltinDialect(spec.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("dialect %q is builtin", spec.Name),
			Code:    ErrReservedDialect,
		})
	}
	if len(spec.Ops) == 0 {
		errs = append(errs, ValidationError{
			Field:   "ops",
			Message: "at least one op is required",
			Code:    ErrNoOps,
		})
	}

	seen := make(map[string]bool)
	for i, op := range spec.Ops {
		field := fmt.Sprintf("ops[%d]", i)
		if !identPattern.MatchString(op.Name) {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid op name %q", op.Name),
				Code:    ErrInvalidOpName,
			})
		}
		if seen[op.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate op name: %q", op.Name),
				Code:    ErrDuplicateName,
			})
		}
		seen[op.Name] = true

		if !ir.ValidEffects[op.Effects] {
			errs = append(errs, ValidationError{
				Field:   field + ".effects",
				Message: fmt.Sprintf("invalid effects %q, must be %s", op.Effects, effectList()),
				Code:    ErrInvalidEffect,
			})
		}
		if op.Terminator && (op.Effects == ir.EffectRead || op.Effects == ir.EffectRecursive) {
			errs = append(errs, ValidationError{
				Field:   field + ".terminator",
				Message: fmt.Sprintf("terminator %q must declare effects none or write", op.Name),
				Code:    ErrTerminatorEffects,
			})
		}
	}
	return errs
}

func isBuiltinDialect(name string) bool {
	for _, d := range ir.BuiltinDialects() {
		if d.Name == name {
			return true
		}
	}
	return false
}

func effectList() string {
	return strings.Join([]string{
		string(ir.EffectNone),
		string(ir.EffectRead),
		string(ir.EffectWrite),
		string(ir.EffectRecursive),
	}, ", ")
}
