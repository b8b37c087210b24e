package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/trackcse/internal/ir"
)

// opFields are the fields accepted inside an op declaration.
var opFields = map[string]bool{
	"effects":             true,
	"non_hoistable":       true,
	"terminator":          true,
	"isolated_from_above": true,
}

// CompileDialectSource compiles CUE source holding one or more dialects
// under a top-level "dialect" struct:
//
//	dialect: arith: ops: {
//		addi: effects: "none"
//		constant: effects: "none"
//	}
//
// filename is used for error positions only.
func CompileDialectSource(filename, src string) ([]ir.DialectSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileDialects(v)
}

// CompileDialects compiles every dialect under v's "dialect" field, in
// declaration order.
func CompileDialects(v cue.Value) ([]ir.DialectSpec, error) {
	root := v.LookupPath(cue.ParsePath("dialect"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "dialect",
			Message: "no dialect declared",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []ir.DialectSpec
	for iter.Next() {
		spec, err := CompileDialect(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileDialect parses a single dialect struct. The dialect name is the
// last label of v's path:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`dialect: arith: ops: addi: effects: "none"`)
//	spec, err := CompileDialect(v.LookupPath(cue.ParsePath("dialect.arith")))
func CompileDialect(v cue.Value) (*ir.DialectSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.DialectSpec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{
			Field:   "ops",
			Message: "ops is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := opsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		op, err := compileOp(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Ops = append(spec.Ops, op)
	}
	if len(spec.Ops) == 0 {
		return nil, &CompileError{
			Field:   "ops",
			Message: "at least one op is required",
			Pos:     opsVal.Pos(),
		}
	}
	return spec, nil
}

func compileOp(name string, v cue.Value) (ir.OpSpec, error) {
	op := ir.OpSpec{Name: name}

	fields, err := v.Fields()
	if err != nil {
		return op, formatCUEError(err)
	}
	for fields.Next() {
		if !opFields[fields.Label()] {
			return op, &CompileError{
				Field:   fmt.Sprintf("ops.%s.%s", name, fields.Label()),
				Message: "unknown field",
				Pos:     fields.Value().Pos(),
			}
		}
	}

	effVal := v.LookupPath(cue.ParsePath("effects"))
	if !effVal.Exists() {
		return op, &CompileError{
			Field:   fmt.Sprintf("ops.%s.effects", name),
			Message: "effects is required",
			Pos:     v.Pos(),
		}
	}
	eff, err := effVal.String()
	if err != nil {
		return op, formatCUEError(err)
	}
	op.Effects = ir.Effect(eff)

	flags := []struct {
		field string
		dst   *bool
	}{
		{"non_hoistable", &op.NonHoistable},
		{"terminator", &op.Terminator},
		{"isolated_from_above", &op.IsolatedFromAbove},
	}
	for _, f := range flags {
		fv := v.LookupPath(cue.ParsePath(f.field))
		if !fv.Exists() {
			continue
		}
		b, err := fv.Bool()
		if err != nil {
			return op, formatCUEError(err)
		}
		*f.dst = b
	}
	return op, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
