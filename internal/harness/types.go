package harness

import "github.com/roach88/searchql/internal/ir"

// StepTrace is the compiled output of one scenario step.
type StepTrace struct {
	Step       string      `json:"step"`
	Dialect    string      `json:"dialect,omitempty"`
	QueryID    string      `json:"query_id,omitempty"`
	Text       string      `json:"text,omitempty"`
	Bindings   ir.IRObject `json:"bindings,omitempty"`
	Projection []string    `json:"projection,omitempty"`
	Skip       int         `json:"skip,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step met its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in step order.
	Trace []StepTrace `json:"trace"`

	// Errors holds the failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(step StepTrace) {
	r.Trace = append(r.Trace, step)
}

// Step returns the trace entry for the named step.
func (r *Result) Step(name string) (StepTrace, bool) {
	for _, s := range r.Trace {
		if s.Step == name {
			return s, true
		}
	}
	return StepTrace{}, false
}
