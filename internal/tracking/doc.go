// Package tracking keeps an external key-to-operation mapping consistent
// while the CSE engine rewrites the IR.
//
// Callers hold handles (keys) to operations. When the engine merges a
// duplicate into an equivalent operation, every key that pointed at the
// duplicate is repointed at the survivor. When an operation is erased
// without a preceding replacement, the keys pointing at it are dropped and
// the inconsistency is recorded: the mapping never holds a dangling entry,
// and the caller learns about the loss from CheckErrorState.
//
// Mappings hold OpIDs, not pointers, so they stay meaningful after an
// erase and can live outside the process (see package store).
package tracking
