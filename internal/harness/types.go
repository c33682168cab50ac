package harness

import "github.com/roach88/bandwalk/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the run ended as expected and every assertion held.
	Pass bool `json:"pass"`

	// RunID is the id the run was stored under.
	RunID string `json:"run_id,omitempty"`

	// Steps is the number of steps the run took, restarts included.
	Steps int `json:"steps"`

	// Trace contains every fired event in firing order, as read back from
	// the store.
	Trace []ir.EventRecord `json:"trace"`

	// RunError is the error the run ended with, if any.
	RunError string `json:"run_error,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.EventRecord{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
