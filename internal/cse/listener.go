package cse

import "github.com/roach88/trackcse/internal/ir"

// Listener observes IR mutations made by the engine. Calls are synchronous
// and arrive in mutation order. Operations passed to a listener are still
// attached and readable; they are erased only after NotifyOperationRemoved
// returns.
type Listener interface {
	// NotifyOperationReplaced reports that every use of op now reads the
	// corresponding result of replacement.
	NotifyOperationReplaced(op, replacement *ir.Operation)

	// NotifyOperationRemoved reports that op is about to be erased.
	NotifyOperationRemoved(op *ir.Operation)
}

// NopListener ignores all notifications.
type NopListener struct{}

func (NopListener) NotifyOperationReplaced(op, replacement *ir.Operation) {}
func (NopListener) NotifyOperationRemoved(op *ir.Operation)               {}

// DominanceProvider answers the dominance queries the traversal needs.
// *dominance.Info implements it.
type DominanceProvider interface {
	// Dominates reports whether the results of a are available at b.
	Dominates(a, b *ir.Operation) bool

	// Children returns the blocks immediately dominated by b, in a
	// deterministic order.
	Children(b *ir.Block) []*ir.Block
}
