package harness

import (
	"github.com/roach88/archpass/internal/core"
	"github.com/roach88/archpass/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Run is the run record as read back from the store.
	Run store.Run `json:"run"`

	// Patch, Bindings and Dataflows are the committed results as read
	// back from the store, in seq order.
	Patch     store.PatchSummary      `json:"patch"`
	Bindings  []store.Binding         `json:"bindings"`
	Dataflows []store.DataflowSummary `json:"dataflows"`

	// Statements maps block addresses ("0x1000") to the formatted
	// statements of the patched program.
	Statements map[string][]string `json:"statements"`

	// Context is the run context after the run, for inspecting dataflow
	// results.
	Context *core.Context `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Errors:     []string{},
		Bindings:   []store.Binding{},
		Dataflows:  []store.DataflowSummary{},
		Statements: make(map[string][]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
