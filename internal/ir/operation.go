package ir

import (
	"errors"
	"fmt"
	"slices"
)

// Errors returned by IR mutation.
var (
	// ErrHasUses is returned when erasing an operation whose results are
	// still read by other operations.
	ErrHasUses = errors.New("operation results still have uses")

	// ErrErased is returned when mutating an operation that was already erased.
	ErrErased = errors.New("operation already erased")

	// ErrResultCount is returned by ReplaceAllUsesWith when the two
	// operations do not produce the same number of results.
	ErrResultCount = errors.New("result count mismatch")
)

// Operation is a node of the IR.
type Operation struct {
	id         OpID
	module     *Module
	kind       string
	operands   []*Use
	results    []*Value
	attrs      DictAttr
	regions    []*Region
	successors []*Block
	block      *Block
	erased     bool
}

// ID returns the module-unique operation ID.
func (op *Operation) ID() OpID { return op.id }

// Module returns the arena owning op.
func (op *Operation) Module() *Module { return op.module }

// Kind returns the fully qualified operation name, e.g. "arith.addi".
func (op *Operation) Kind() string { return op.kind }

// NumOperands returns the number of operands.
func (op *Operation) NumOperands() int { return len(op.operands) }

// Operand returns the i-th operand value.
func (op *Operation) Operand(i int) *Value { return op.operands[i].value }

// Operands returns the operand values in order.
func (op *Operation) Operands() []*Value {
	out := make([]*Value, len(op.operands))
	for i, u := range op.operands {
		out[i] = u.value
	}
	return out
}

// SetOperand makes operand slot i read v.
func (op *Operation) SetOperand(i int, v *Value) {
	u := op.operands[i]
	if u.value == v {
		return
	}
	u.value.removeUse(u)
	u.value = v
	v.addUse(u)
}

func (op *Operation) appendOperand(v *Value) {
	u := &Use{value: v, owner: op, index: len(op.operands)}
	op.operands = append(op.operands, u)
	v.addUse(u)
}

// NumResults returns the number of results.
func (op *Operation) NumResults() int { return len(op.results) }

// Result returns the i-th result.
func (op *Operation) Result(i int) *Value { return op.results[i] }

// Results returns the results in order.
func (op *Operation) Results() []*Value { return slices.Clone(op.results) }

// ResultTypes returns the result types in order.
func (op *Operation) ResultTypes() []Type {
	out := make([]Type, len(op.results))
	for i, r := range op.results {
		out[i] = r.typ
	}
	return out
}

// Attrs returns the attribute dictionary. Callers must not mutate it;
// use SetAttr instead.
func (op *Operation) Attrs() DictAttr { return op.attrs }

// Attr returns the named attribute.
func (op *Operation) Attr(name string) (Attr, bool) {
	a, ok := op.attrs[name]
	return a, ok
}

// SetAttr sets or replaces the named attribute.
func (op *Operation) SetAttr(name string, a Attr) {
	if op.attrs == nil {
		op.attrs = DictAttr{}
	}
	op.attrs[name] = a
}

// NumRegions returns the number of nested regions.
func (op *Operation) NumRegions() int { return len(op.regions) }

// Region returns the i-th region.
func (op *Operation) Region(i int) *Region { return op.regions[i] }

// Regions returns the nested regions in order.
func (op *Operation) Regions() []*Region { return slices.Clone(op.regions) }

// Successors returns the successor blocks of a branching operation.
func (op *Operation) Successors() []*Block { return slices.Clone(op.successors) }

// Block returns the block containing op, or nil for a root or detached op.
func (op *Operation) Block() *Block { return op.block }

// ParentOp returns the operation whose region contains op.
func (op *Operation) ParentOp() *Operation {
	if op.block == nil || op.block.region == nil {
		return nil
	}
	return op.block.region.op
}

// IsErased reports whether op has been erased.
func (op *Operation) IsErased() bool { return op.erased }

// HasUses reports whether any result of op is read.
func (op *Operation) HasUses() bool {
	for _, r := range op.results {
		if r.HasUses() {
			return true
		}
	}
	return false
}

// IsProperAncestor reports whether other is nested (at any depth) inside
// one of op's regions.
func (op *Operation) IsProperAncestor(other *Operation) bool {
	for p := other.ParentOp(); p != nil; p = p.ParentOp() {
		if p == op {
			return true
		}
	}
	return false
}

// Walk calls fn on op and every nested operation in pre-order.
func (op *Operation) Walk(fn func(*Operation)) {
	fn(op)
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, nested := range slices.Clone(b.ops) {
				nested.Walk(fn)
			}
		}
	}
}

// ReplaceAllUsesWith redirects every use of op's results to the
// corresponding results of other.
func (op *Operation) ReplaceAllUsesWith(other *Operation) error {
	if op.erased || other.erased {
		return ErrErased
	}
	if len(op.results) != len(other.results) {
		return fmt.Errorf("replace %s with %s: %w", op, other, ErrResultCount)
	}
	for i, r := range op.results {
		r.ReplaceAllUsesWith(other.results[i])
	}
	return nil
}

// Erase removes op and everything nested in it from the IR and the arena.
// It fails with ErrHasUses while any result of op is still read.
func (op *Operation) Erase() error {
	if op.erased {
		return fmt.Errorf("erase %s: %w", op, ErrErased)
	}
	if op.HasUses() {
		return fmt.Errorf("erase %s: %w", op, ErrHasUses)
	}

	// Drop every operand reference first so nested ops reading each other
	// do not keep values alive.
	op.Walk(func(o *Operation) {
		for _, u := range o.operands {
			u.value.removeUse(u)
		}
	})
	op.Walk(func(o *Operation) {
		o.erased = true
		o.module.release(o)
	})

	if op.block != nil {
		op.block.remove(op)
		op.block = nil
	}
	return nil
}

// String returns a debug form such as "arith.addi#7".
func (op *Operation) String() string {
	return fmt.Sprintf("%s#%d", op.kind, op.id)
}
