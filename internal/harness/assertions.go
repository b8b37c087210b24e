package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes the printed IR to help debug the failure.
type AssertionError struct {
	Type     string // Expectation that failed
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	IR       string // Printed module after the run
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.IR != "" {
		fmt.Fprintf(&buf, "\nIR after run:\n%s", e.IR)
	}
	return buf.String()
}

// EvaluateExpect checks every set field of exp against the result.
// Returns a message per failed expectation.
func EvaluateExpect(result *Result, built *Built, exp Expect) []string {
	var failures []string
	fail := func(typ, expected, actual string) {
		failures = append(failures, (&AssertionError{
			Type:     typ,
			Expected: expected,
			Actual:   actual,
			IR:       result.IR,
		}).Error())
	}

	if exp.Merged != nil && *exp.Merged != result.Stats.Merged {
		fail("merged", fmt.Sprint(*exp.Merged), fmt.Sprint(result.Stats.Merged))
	}
	if exp.ErasedDead != nil && *exp.ErasedDead != result.Stats.ErasedDead {
		fail("erased_dead", fmt.Sprint(*exp.ErasedDead), fmt.Sprint(result.Stats.ErasedDead))
	}
	if exp.Precondition != result.Precondition {
		fail("precondition", orNone(exp.Precondition), orNone(result.Precondition))
	}
	if !slices.Equal(exp.Tracking, result.Tracking) {
		fail("tracking", fmt.Sprint(exp.Tracking), fmt.Sprint(result.Tracking))
	}
	if exp.Handles != nil && !handlesEqual(exp.Handles, result.Handles) {
		fail("handles", formatHandles(exp.Handles), formatHandles(result.Handles))
	}

	for _, label := range exp.Erased {
		op, ok := built.Ops[label]
		switch {
		case !ok:
			fail("erased", label+" erased", "no operation labeled "+label)
		case !op.IsErased():
			fail("erased", label+" erased", label+" is live")
		}
	}
	for _, label := range exp.Live {
		op, ok := built.Ops[label]
		switch {
		case !ok:
			fail("live", label+" live", "no operation labeled "+label)
		case op.IsErased():
			fail("live", label+" live", label+" was erased")
		}
	}
	return failures
}

// handlesEqual compares mappings with each label list taken as a set.
func handlesEqual(want, got map[string][]string) bool {
	if len(want) != len(got) {
		return false
	}
	for key, labels := range want {
		g, ok := got[key]
		if !ok {
			return false
		}
		w := slices.Clone(labels)
		slices.Sort(w)
		w = slices.Compact(w)
		if !slices.Equal(w, g) {
			return false
		}
	}
	return true
}

func formatHandles(h map[string][]string) string {
	if len(h) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(h))
	for _, key := range sortedKeys(h) {
		parts = append(parts, key+": "+strings.Join(h[key], ","))
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// sortedKeys returns the keys of m in ascending order. It stands in for
// slices.Sorted(maps.Keys(m)), which requires Go 1.23.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
