package harness

// TraceEvent is the outcome of one step.
type TraceEvent struct {
	Step  int    `json:"step"`
	Kind  string `json:"kind"` // "query" or "suggest"
	Input string `json:"input"`

	// Query steps: result paths and numbered listener events.
	Entities []string `json:"entities,omitempty"`
	Events   []string `json:"events,omitempty"`

	// Suggest steps: "category name" per suggestion, in rank order.
	Suggestions []string `json:"suggestions,omitempty"`

	compileErrors []string
	runtimeErrors []string
	names         []string
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
