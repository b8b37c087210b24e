package fingerprint

import (
	"github.com/roach88/trackcse/internal/ir"
)

// Equivalent reports whether a and b are structurally identical: same kind,
// deeply equal attributes, identical operands, equal result types, identical
// successors and equal regions.
//
// Regions are compared up to renaming of the values and blocks they define.
// A value used inside a region but defined outside it must be the very same
// Value in both operations.
func Equivalent(a, b *ir.Operation) bool {
	if a == b {
		return true
	}
	m := newMatcher()
	// Shape first, so every nested value and block is paired before any
	// operand is compared. Forward references across blocks then resolve.
	if !m.bindOp(a, b) {
		return false
	}
	return m.compareOp(a, b)
}

// OpPair pairs an operation with its counterpart in an equivalent operation.
type OpPair struct {
	From *ir.Operation
	To   *ir.Operation
}

// NestedCorrespondence pairs every operation nested in from with the
// operation at the same position in to, in pre-order. It returns nil unless
// the two operations are Equivalent.
func NestedCorrespondence(from, to *ir.Operation) []OpPair {
	if !Equivalent(from, to) {
		return nil
	}
	var out []OpPair
	var walk func(a, b *ir.Operation)
	walk = func(a, b *ir.Operation) {
		ar, br := a.Regions(), b.Regions()
		for i := range ar {
			ab, bb := ar[i].Blocks(), br[i].Blocks()
			for j := range ab {
				aops, bops := ab[j].Ops(), bb[j].Ops()
				for k := range aops {
					out = append(out, OpPair{From: aops[k], To: bops[k]})
					walk(aops[k], bops[k])
				}
			}
		}
	}
	walk(from, to)
	return out
}

type matcher struct {
	values map[*ir.Value]*ir.Value
	blocks map[*ir.Block]*ir.Block
}

func newMatcher() *matcher {
	return &matcher{
		values: make(map[*ir.Value]*ir.Value),
		blocks: make(map[*ir.Block]*ir.Block),
	}
}

// bindOp checks everything about a and b that does not depend on operand
// identity and records the pairing of nested values and blocks.
func (m *matcher) bindOp(a, b *ir.Operation) bool {
	if a.Kind() != b.Kind() ||
		a.NumOperands() != b.NumOperands() ||
		a.NumResults() != b.NumResults() ||
		len(a.Successors()) != len(b.Successors()) ||
		a.NumRegions() != b.NumRegions() {
		return false
	}
	if !ir.EqualAttrs(a.Attrs(), b.Attrs()) {
		return false
	}
	for i := 0; i < a.NumResults(); i++ {
		if a.Result(i).Type() != b.Result(i).Type() {
			return false
		}
	}
	for i := 0; i < a.NumRegions(); i++ {
		if !m.bindRegion(a.Region(i), b.Region(i)) {
			return false
		}
	}
	return true
}

func (m *matcher) bindRegion(a, b *ir.Region) bool {
	if a.NumBlocks() != b.NumBlocks() {
		return false
	}
	for i := 0; i < a.NumBlocks(); i++ {
		ab, bb := a.Block(i), b.Block(i)
		if ab.NumArgs() != bb.NumArgs() || ab.NumOps() != bb.NumOps() {
			return false
		}
		m.blocks[ab] = bb
		for j := 0; j < ab.NumArgs(); j++ {
			if ab.Arg(j).Type() != bb.Arg(j).Type() {
				return false
			}
			m.values[ab.Arg(j)] = bb.Arg(j)
		}
	}
	for i := 0; i < a.NumBlocks(); i++ {
		ab, bb := a.Block(i), b.Block(i)
		for j := 0; j < ab.NumOps(); j++ {
			ao, bo := ab.Op(j), bb.Op(j)
			if !m.bindOp(ao, bo) {
				return false
			}
			for k := 0; k < ao.NumResults(); k++ {
				m.values[ao.Result(k)] = bo.Result(k)
			}
		}
	}
	return true
}

// compareOp checks operand and successor identity under the recorded
// pairing. bindOp must have succeeded on the same pair.
func (m *matcher) compareOp(a, b *ir.Operation) bool {
	for i := 0; i < a.NumOperands(); i++ {
		if !m.sameValue(a.Operand(i), b.Operand(i)) {
			return false
		}
	}
	as, bs := a.Successors(), b.Successors()
	for i := range as {
		if !m.sameBlock(as[i], bs[i]) {
			return false
		}
	}
	for i := 0; i < a.NumRegions(); i++ {
		for _, ab := range a.Region(i).Blocks() {
			bb := m.blocks[ab]
			for j := 0; j < ab.NumOps(); j++ {
				if !m.compareOp(ab.Op(j), bb.Op(j)) {
					return false
				}
			}
		}
	}
	return true
}

func (m *matcher) sameValue(a, b *ir.Value) bool {
	if mapped, ok := m.values[a]; ok {
		return mapped == b
	}
	return a == b
}

func (m *matcher) sameBlock(a, b *ir.Block) bool {
	if mapped, ok := m.blocks[a]; ok {
		return mapped == b
	}
	return a == b
}
