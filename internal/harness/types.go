package harness

import "fmt"

// TraceEvent records the observable outcome of one scenario step.
type TraceEvent struct {
	Seq    int            `json:"seq"`
	Op     string         `json:"op"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	ScenarioName string
	Passed       bool
	Trace        []TraceEvent
	Failures     []string
}

// NewResult creates an empty passing result. Failures flip it.
func NewResult(name string) *Result {
	return &Result{ScenarioName: name, Passed: true}
}

// Fail records an assertion or step failure.
func (r *Result) Fail(format string, args ...any) {
	r.Passed = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}
