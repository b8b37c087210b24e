// Package harness runs tracked CSE scenarios described in YAML and checks
// their outcome.
//
// # Scenario Format
//
//	name: sibling_adds
//	description: "What this scenario validates"
//	dialects:                 # optional CUE trait files, relative paths
//	  - ../dialects/tensor.cue
//	options:
//	  erase_trivially_dead: false
//	  exclude: [arith.constant]
//	ir:
//	  - op: test.source
//	    results: ["x:i32"]
//	  - op: arith.addi
//	    label: a1             # defaults to the first result name
//	    operands: [x, x]
//	    results: ["a1:i32"]
//	    attrs: {overflow: none}
//	  - op: test.region
//	    regions:
//	      - blocks:
//	          - label: entry
//	            args: ["arg:i32"]
//	            ops: [...]
//	handles:
//	  K1: [a1]
//	expect:
//	  merged: 1
//	  erased_dead: 0
//	  precondition: ""        # engine error code
//	  tracking: []            # tracking error codes, in order
//	  handles: {K1: [a1]}
//	  erased: [a2]
//	  live: [a1]
//
// Values must be defined before they are used. Block labels and block
// arguments are visible throughout their region.
//
// # Execution
//
// Each run loads the handles into a store (a fresh in-memory SQLite
// database unless one is configured), runs the pass against the
// store-backed mapping, and records the run log. Engine logs are discarded
// unless a logger is configured.
//
// # Golden Snapshots
//
// RunWithGolden compares a text snapshot (counters, error codes, handles
// by label, printed IR) against testdata/golden/<name>.golden. Value and
// block names in the printed IR are positional, so snapshots do not depend
// on IDs.
package harness
