package harness

import "github.com/roach88/hierframe/internal/store"

// BatchFailure is one aborted batch of a scenario run.
type BatchFailure struct {
	Seq     int64  `json:"seq"`
	Output  string `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Tables lists the stored tables in seq order.
	Tables []store.TableMeta `json:"tables"`

	// Failures lists aborted batches in seq order.
	Failures []BatchFailure `json:"failures,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Tables: []store.TableMeta{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failure returns the failure of batch seq, if any.
func (r *Result) Failure(seq int64) (BatchFailure, bool) {
	for _, f := range r.Failures {
		if f.Seq == seq {
			return f, true
		}
	}
	return BatchFailure{}, false
}
