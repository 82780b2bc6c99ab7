package harness

import (
	"github.com/ghostwipe/ghostwipe/internal/credential"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: the expectation held and every
	// assertion passed.
	Pass bool `json:"pass"`

	// Outcome is credential, ok, quit or error.
	Outcome string `json:"outcome"`

	// Kind classifies the error when Outcome is error.
	Kind string `json:"kind,omitempty"`

	// Err is the error returned by the operation, if any.
	Err error `json:"-"`

	// Credential is what Resolve returned.
	Credential credential.Credential `json:"-"`

	// Transcript is everything the operator saw, with the data directory
	// replaced by "$DATA".
	Transcript string `json:"transcript"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
