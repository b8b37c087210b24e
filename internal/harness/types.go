package harness

import (
	"github.com/roach88/trackcse/internal/cse"
	"github.com/roach88/trackcse/internal/tracking"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// RunID identifies the run in the store.
	RunID string `json:"run_id"`

	Stats cse.Stats `json:"stats"`

	// Precondition is the engine error code, if the engine stopped.
	Precondition string `json:"precondition,omitempty"`

	// Tracking lists tracking error codes in the order they were recorded.
	Tracking []string `json:"tracking,omitempty"`

	// Error is the text of the run's error, if any.
	Error string `json:"error,omitempty"`

	// Handles is the mapping after the run, by label, keys and labels
	// sorted.
	Handles map[string][]string `json:"handles"`

	// Events is the listener journal.
	Events []tracking.Event `json:"events"`

	// IR is the printed module after the run.
	IR string `json:"ir"`

	// Failures contains expectation failure messages.
	Failures []string `json:"failures,omitempty"`

	built *Built
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Handles: make(map[string][]string),
		Events:  []tracking.Event{},
	}
}

// AddFailure records an expectation failure and marks the result failed.
func (r *Result) AddFailure(msg string) {
	r.Failures = append(r.Failures, msg)
	r.Pass = false
}

// Built returns the scenario IR the run rewrote.
func (r *Result) Built() *Built {
	return r.built
}
