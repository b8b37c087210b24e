// Package cse implements common subexpression elimination over the
// hierarchical IR of package ir.
//
// The engine walks every region under a root operation in dominance order,
// keeping a scoped table of the operations seen so far. When an operation
// is structurally identical to one already in scope, its uses are redirected
// to the earlier operation, a Listener is told about the replacement and
// the removal, and the duplicate is erased.
//
// TRAVERSAL:
//
// Single-block regions are visited in one scope. Multi-block regions are
// visited along the dominator tree from the entry block, one scope per
// block nested under the scope of its immediate dominator, so a candidate
// is only ever visible where it dominates. Nested regions of an operation
// are simplified before the operation itself is looked up, which makes a
// second run over the output a no-op. Operations whose kind is isolated
// from above get a fresh table.
//
// ELIGIBILITY:
//
// An operation is a candidate only if its registered effects are none (or
// recursive with every nested operation effect free), it has at least one
// result, and it is neither a terminator nor non-hoistable. Unregistered
// kinds are treated as writing and are never merged.
//
// NOTIFICATION ORDER:
//
// For every merge the listener sees, in order: one replaced event per
// nested operation of the duplicate (paired with its counterpart in the
// survivor), the replaced event for the duplicate itself, then the removed
// event. Erasure happens strictly after the removed event. Trivially dead
// operations, when enabled, get a removed event with no replacement.
//
// Errors returned by Run are precondition failures; the IR may be partially
// rewritten when one occurs. There is no rollback.
package cse
