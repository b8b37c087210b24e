package ir

import (
	"fmt"
	"slices"
)

// Verify checks the structural invariants of the IR rooted at op:
//   - no erased operation is reachable
//   - every operand reads a live value of the same module
//   - use-lists agree with operand slots in both directions
//   - successors name blocks of the region containing the branch
//
// It returns the first violation found.
func Verify(op *Operation) error {
	var err error
	op.Walk(func(o *Operation) {
		if err == nil {
			err = verifyOp(o)
		}
	})
	return err
}

func verifyOp(op *Operation) error {
	if op.erased {
		return fmt.Errorf("%s: reachable after erase", op)
	}
	m := op.module
	if m.Op(op.id) != op {
		return fmt.Errorf("%s: not registered in its module", op)
	}

	for i, u := range op.operands {
		v := u.value
		if m.Value(v.id) != v {
			return fmt.Errorf("%s: operand %d reads a dead or foreign value %s", op, i, v)
		}
		if !slices.Contains(v.uses, u) {
			return fmt.Errorf("%s: operand %d missing from the use-list of %s", op, i, v)
		}
	}

	for _, r := range op.results {
		for _, u := range r.uses {
			if u.value != r {
				return fmt.Errorf("%s: stale use recorded on %s", op, r)
			}
			if u.owner.erased {
				return fmt.Errorf("%s: result %s read by erased %s", op, r, u.owner)
			}
		}
	}

	for _, s := range op.successors {
		if op.block == nil || s.region != op.block.region {
			return fmt.Errorf("%s: successor outside the enclosing region", op)
		}
	}
	return nil
}
