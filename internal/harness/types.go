package harness

// Trace event types.
const (
	// EventStep marks the start of a scenario step.
	EventStep = "step"
	// EventHistory is a history notification.
	EventHistory = "history"
	// EventAction is an action that reached the reducer.
	EventAction = "action"
	// EventStore is a store notification.
	EventStore = "store"
	// EventCall is a history call made by the bridge or the middleware.
	EventCall = "call"
	// EventError is a step that failed without aborting the scenario.
	EventError = "error"
)

// TraceEvent is one observation made while running a scenario.
// Which fields are set depends on Type.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	// Name is the step operation, the navigation action (PUSH, REPLACE,
	// POP), the action type or the history method.
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
	Key  string `json:"key,omitempty"`

	// ChangeID is the router state's change id (store events).
	ChangeID int64 `json:"change_id"`

	// Ref is the recorder seq of an action event; devtools steps use it.
	Ref int64 `json:"ref,omitempty"`

	// Silent is set on location changes that request no history update.
	Silent bool `json:"silent,omitempty"`

	N       int    `json:"n,omitempty"`
	Message string `json:"message,omitempty"`
}

// Matches reports whether the event is selected by m.
func (e TraceEvent) Matches(m TraceMatch) bool {
	return (m.Event == "" || m.Event == e.Type) &&
		(m.Name == "" || m.Name == e.Name) &&
		(m.Path == "" || m.Path == e.Path)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every observation in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state: history_path, history_index, store_path,
	// change_id and history_calls.
	State map[string]interface{} `json:"state,omitempty"`

	// Metrics maps series ("name{label=\"value\"}") to their values.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	series []Series
}

// Series is one gathered metric series.
type Series struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Errors:  []string{},
		State:   make(map[string]interface{}),
		Metrics: make(map[string]float64),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
