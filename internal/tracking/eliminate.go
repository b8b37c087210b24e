package tracking

import (
	"github.com/roach88/trackcse/internal/cse"
	"github.com/roach88/trackcse/internal/ir"
)

// EliminateCommonSubexpressions runs CSE over root while keeping m
// consistent with every merge and erase.
//
// An engine precondition failure is returned as soon as it happens, with
// m reflecting the notifications handled up to that point. Otherwise the
// result is the listener's error state: nil when every tracked operation
// was either kept or repointed.
func EliminateCommonSubexpressions(root *ir.Operation, m Mapping, dom cse.DominanceProvider, opts ...cse.Option) (cse.Stats, error) {
	stats, _, err := EliminateWithListener(root, m, dom, opts...)
	return stats, err
}

// EliminateWithListener is EliminateCommonSubexpressions that also returns
// the listener, for callers that persist its journal.
func EliminateWithListener(root *ir.Operation, m Mapping, dom cse.DominanceProvider, opts ...cse.Option) (cse.Stats, *Listener, error) {
	l := NewListener(m)
	stats, err := cse.Run(root, dom, l, opts...)
	if err != nil {
		return stats, l, err
	}
	return stats, l, l.CheckErrorState()
}
