package harness

import "github.com/tbracht/weft/internal/store"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Edges are the dependence edges the pipeline produced, read back
	// from the store in its deterministic order.
	Edges []store.Edge `json:"edges"`

	// Report is the rendered dependency report for the analyzed kernel.
	Report string `json:"report"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Edges:  []store.Edge{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
