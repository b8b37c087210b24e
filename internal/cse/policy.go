package cse

import "github.com/roach88/trackcse/internal/ir"

// Policy decides which operations the engine may merge or erase.
type Policy struct {
	registry *ir.Registry
	exclude  func(*ir.Operation) bool
}

// NewPolicy creates a policy over registry. A nil registry falls back to
// ir.BuiltinRegistry. A nil exclude excludes nothing.
func NewPolicy(registry *ir.Registry, exclude func(*ir.Operation) bool) *Policy {
	if registry == nil {
		registry = ir.BuiltinRegistry()
	}
	return &Policy{registry: registry, exclude: exclude}
}

// Eligible reports whether op may be merged with an equivalent operation.
func (p *Policy) Eligible(op *ir.Operation) bool {
	return op.NumResults() > 0 && p.movable(op)
}

// TriviallyDead reports whether op may be erased outright: it would be
// eligible apart from its result count, and none of its results are read.
func (p *Policy) TriviallyDead(op *ir.Operation) bool {
	return !op.HasUses() && p.movable(op)
}

func (p *Policy) movable(op *ir.Operation) bool {
	if op.Block() == nil {
		return false
	}
	spec, _ := p.registry.Lookup(op.Kind())
	if spec.Terminator || spec.NonHoistable {
		return false
	}
	if p.exclude != nil && p.exclude(op) {
		return false
	}
	return p.EffectFree(op)
}

// EffectFree reports whether op has no memory effects: its kind is pure,
// or its effects are recursive and every nested operation is effect free.
func (p *Policy) EffectFree(op *ir.Operation) bool {
	switch p.registry.Effects(op.Kind()) {
	case ir.EffectNone:
		return true
	case ir.EffectRecursive:
		for _, r := range op.Regions() {
			for _, b := range r.Blocks() {
				for _, nested := range b.Ops() {
					if !p.EffectFree(nested) {
						return false
					}
				}
			}
		}
		return true
	default:
		return false
	}
}

// IsolatedFromAbove reports whether op's regions may not read values
// defined outside op.
func (p *Policy) IsolatedFromAbove(op *ir.Operation) bool {
	spec, _ := p.registry.Lookup(op.Kind())
	return spec.IsolatedFromAbove
}
