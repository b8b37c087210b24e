package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the outcome of a run as stable text: the counters, the
// error codes, the mapping by label, and the printed IR. Nothing in it
// depends on OpIDs, run IDs, or map order.
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "visited: %d merged: %d erased_dead: %d\n",
		result.Stats.Visited, result.Stats.Merged, result.Stats.ErasedDead)
	if result.Precondition != "" {
		fmt.Fprintf(&b, "precondition: %s\n", result.Precondition)
	}
	if len(result.Tracking) > 0 {
		fmt.Fprintf(&b, "tracking: %s\n", strings.Join(result.Tracking, ", "))
	}
	b.WriteString("handles:\n")
	for _, key := range sortedKeys(result.Handles) {
		fmt.Fprintf(&b, "  %s -> %s\n", key, strings.Join(result.Handles[key], ", "))
	}
	b.WriteString("ir:\n")
	b.WriteString(result.IR)
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot be run.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
