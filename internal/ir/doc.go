// Package ir provides the intermediate representation the CSE pass rewrites.
//
// The IR is hierarchical: a Module owns a root Operation; operations own
// Regions, regions own Blocks, blocks own Operations. Values are defined
// either as operation results or as block arguments and are referenced by
// identity. Every value keeps a use-list so ReplaceAllUsesWith is total.
//
// The Module doubles as an arena: operations and values receive dense,
// never-reused IDs, and Module.Op returns nil for an erased operation. Code
// that must outlive an erase (tracking maps, run logs) holds OpIDs, not
// pointers.
//
// This package imports nothing internal. Key constraints:
//   - Attributes are a sealed set with no floats, encoded canonically (RFC 8785)
//   - Printing is deterministic: value and block names depend only on structure
//   - Erase refuses operations whose results still have uses
package ir
