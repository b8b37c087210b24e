package ir

import (
	"fmt"
	"slices"
)

// Value is an SSA value: either a result of an operation or a block
// argument. Operations reference values by pointer identity.
type Value struct {
	id    ValueID
	typ   Type
	def   *Operation // nil for block arguments
	block *Block     // owning block for block arguments
	index int        // result number or argument number
	uses  []*Use
}

// Use is one operand slot of an operation that reads a value.
type Use struct {
	value *Value
	owner *Operation
	index int
}

// Value returns the value read by this use.
func (u *Use) Value() *Value { return u.value }

// Owner returns the operation holding the operand slot.
func (u *Use) Owner() *Operation { return u.owner }

// Index returns the operand number within the owner.
func (u *Use) Index() int { return u.index }

// ID returns the module-unique value ID.
func (v *Value) ID() ValueID { return v.id }

// Type returns the value's type.
func (v *Value) Type() Type { return v.typ }

// DefiningOp returns the operation producing v, or nil for a block argument.
func (v *Value) DefiningOp() *Operation { return v.def }

// OwnerBlock returns the block declaring v as an argument, or nil for a result.
func (v *Value) OwnerBlock() *Block { return v.block }

// IsBlockArgument reports whether v is a block argument.
func (v *Value) IsBlockArgument() bool { return v.def == nil }

// Index returns the result number or argument number of v.
func (v *Value) Index() int { return v.index }

// Uses returns a snapshot of v's uses in the order they were added.
func (v *Value) Uses() []*Use { return slices.Clone(v.uses) }

// NumUses returns the number of operand slots reading v.
func (v *Value) NumUses() int { return len(v.uses) }

// HasUses reports whether any operand slot reads v.
func (v *Value) HasUses() bool { return len(v.uses) > 0 }

// ReplaceAllUsesWith redirects every use of v to w. Afterwards v has no uses.
func (v *Value) ReplaceAllUsesWith(w *Value) {
	if v == w {
		return
	}
	for _, u := range v.uses {
		u.value = w
		w.uses = append(w.uses, u)
	}
	v.uses = nil
}

func (v *Value) addUse(u *Use) {
	v.uses = append(v.uses, u)
}

func (v *Value) removeUse(u *Use) {
	if i := slices.Index(v.uses, u); i >= 0 {
		v.uses = slices.Delete(v.uses, i, i+1)
	}
}

// String returns a debug form such as "%12:i32".
func (v *Value) String() string {
	return fmt.Sprintf("%%%d:%s", v.id, v.typ)
}
