package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/routesync/internal/engine"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
)

// Scenario defines a synchronization scenario.
// A scenario builds a history and a store, connects them, drives either
// side through a list of steps and asserts on the resulting trace and
// final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// History configures the in-memory history.
	History HistoryConfig `yaml:"history,omitempty"`

	// Options configures the bridge and the store.
	Options ScenarioOptions `yaml:"options,omitempty"`

	// Guards are installed as listenBefore hooks on the history.
	Guards []Guard `yaml:"guards,omitempty"`

	// Steps drive the history and the store, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// HistoryConfig seeds the in-memory history.
type HistoryConfig struct {
	// Entries are the initial paths. Defaults to ["/"].
	Entries []string `yaml:"entries,omitempty"`

	// Index is the initial entry. Nil or negative selects the last one.
	Index *int `yaml:"index,omitempty"`
}

// ScenarioOptions maps onto engine options plus harness wiring.
type ScenarioOptions struct {
	// SamePathPolicy is "notify-always" (default) or "suppress-same-path".
	SamePathPolicy string `yaml:"same_path_policy,omitempty"`

	// AdjustURLOnReplay defaults to true.
	AdjustURLOnReplay *bool `yaml:"adjust_url_on_replay,omitempty"`

	// Intercept installs the router middleware so dispatched navigation
	// intents reach the history.
	Intercept bool `yaml:"intercept,omitempty"`

	// MaxSyncDepth overrides the nested navigation limit.
	MaxSyncDepth int `yaml:"max_sync_depth,omitempty"`

	// InitialPath preloads the store with a location before connecting,
	// as if it had been persisted.
	InitialPath string `yaml:"initial_path,omitempty"`
}

// Guard vetoes or redirects transitions to Path.
type Guard struct {
	Path string `yaml:"path"`

	// Block vetoes the transition.
	Block bool `yaml:"block,omitempty"`

	// Redirect dispatches a replacing location change to this path from
	// inside the hook.
	Redirect string `yaml:"redirect,omitempty"`
}

// Step is a single scenario step. Exactly one of History, Dispatch,
// Action, Devtools or Close must be set.
type Step struct {
	// History navigates the history directly, as a user would:
	// push, replace, go, back or forward.
	History string `yaml:"history,omitempty"`

	// Dispatch sends a routing action to the store: push, replace, go,
	// back and forward dispatch navigation intents; location_changed
	// dispatches a location change.
	Dispatch string `yaml:"dispatch,omitempty"`

	// Action dispatches a plain action of this type.
	Action string `yaml:"action,omitempty"`

	// Devtools drives the action recorder: reset, commit, toggle or jump.
	Devtools string `yaml:"devtools,omitempty"`

	// Close tears the bridge down.
	Close bool `yaml:"close,omitempty"`

	// Path is the target of push, replace and location_changed.
	Path string `yaml:"path,omitempty"`

	// State is attached to the target location.
	State any `yaml:"state,omitempty"`

	// N is the distance for go.
	N int `yaml:"n,omitempty"`

	// Seq is the recorded action for toggle and jump.
	Seq int64 `yaml:"seq,omitempty"`

	// Silent marks a location_changed dispatch as not requesting a
	// history update.
	Silent bool `yaml:"silent,omitempty"`
}

// TraceMatch selects trace events. Empty fields match anything.
type TraceMatch struct {
	Event string `yaml:"event,omitempty"`
	Name  string `yaml:"name,omitempty"`
	Path  string `yaml:"path,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert constants.
	Type string `yaml:"type"`

	// TraceMatch selects events for trace_contains and trace_count. Its
	// Path is also the expected path for history_path and store_path.
	TraceMatch `yaml:",inline"`

	// Count is the expected number of events or calls.
	Count int `yaml:"count,omitempty"`

	// Method narrows history_calls to one history method.
	Method string `yaml:"method,omitempty"`

	// Value is the expected change_id or metric value.
	Value *int64 `yaml:"value,omitempty"`

	// Sequence is the expected event order for trace_order.
	Sequence []TraceMatch `yaml:"sequence,omitempty"`

	// Metric and Labels select series for metric. Series whose labels
	// include Labels are summed.
	Metric string            `yaml:"metric,omitempty"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Assertion type constants.
const (
	AssertHistoryPath   = "history_path"
	AssertStorePath     = "store_path"
	AssertChangeID      = "change_id"
	AssertHistoryCalls  = "history_calls"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertMetric        = "metric"
)

// Step operations.
const (
	OpPush            = "push"
	OpReplace         = "replace"
	OpGo              = "go"
	OpBack            = "back"
	OpForward         = "forward"
	OpLocationChanged = "location_changed"

	OpReset  = "reset"
	OpCommit = "commit"
	OpToggle = "toggle"
	OpJump   = "jump"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// entries returns the configured initial entries, defaulting to "/".
func (h HistoryConfig) entries() []string {
	if len(h.Entries) == 0 {
		return []string{"/"}
	}
	return h.Entries
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Options.SamePathPolicy != "" {
		if _, err := engine.ParseSamePathPolicy(s.Options.SamePathPolicy); err != nil {
			return fmt.Errorf("options: %w", err)
		}
	}
	if s.Options.MaxSyncDepth < 0 {
		return fmt.Errorf("options: max_sync_depth must be non-negative")
	}

	if idx := s.History.Index; idx != nil && *idx >= len(s.History.entries()) {
		return fmt.Errorf("history: index %d out of range for %d entries", *idx, len(s.History.entries()))
	}

	for i, g := range s.Guards {
		if g.Path == "" {
			return fmt.Errorf("guards[%d]: path is required", i)
		}
		if g.Block == (g.Redirect != "") {
			return fmt.Errorf("guards[%d]: exactly one of block or redirect is required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its kind.
func validateStep(index int, st *Step) error {
	kinds := 0
	for _, set := range []bool{st.History != "", st.Dispatch != "", st.Action != "", st.Devtools != "", st.Close} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		return fmt.Errorf("steps[%d]: exactly one of history, dispatch, action, devtools or close is required", index)
	}

	if _, err := ir.ValueOf(st.State); err != nil {
		return fmt.Errorf("steps[%d]: state: %w", index, err)
	}

	switch {
	case st.History != "":
		return validateNavigation(index, "history", st.History, st, false)
	case st.Dispatch != "":
		return validateNavigation(index, "dispatch", st.Dispatch, st, true)
	case st.Devtools != "":
		switch st.Devtools {
		case OpReset, OpCommit:
		case OpToggle:
			if st.Seq <= 0 {
				return fmt.Errorf("steps[%d]: seq is required for devtools toggle", index)
			}
		case OpJump:
			if st.Seq < 0 {
				return fmt.Errorf("steps[%d]: seq must be non-negative for devtools jump", index)
			}
		default:
			return fmt.Errorf("steps[%d]: unknown devtools operation %q", index, st.Devtools)
		}
	case st.Action != "":
		if st.Action == routing.LocationChange || st.Action == routing.UpdateLocation {
			return fmt.Errorf("steps[%d]: use dispatch for routing action %q", index, st.Action)
		}
	}
	return nil
}

func validateNavigation(index int, kind, op string, st *Step, allowLocationChanged bool) error {
	switch op {
	case OpPush, OpReplace:
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s %s", index, kind, op)
		}
	case OpGo:
		if st.N == 0 {
			return fmt.Errorf("steps[%d]: n is required for %s go", index, kind)
		}
	case OpBack, OpForward:
	case OpLocationChanged:
		if !allowLocationChanged {
			return fmt.Errorf("steps[%d]: %s is only valid for dispatch", index, op)
		}
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for dispatch %s", index, op)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown %s operation %q", index, kind, op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertHistoryPath, AssertStorePath:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertChangeID:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for change_id", index)
		}
	case AssertHistoryCalls:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_calls", index)
		}
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Sequence) == 0 {
			return fmt.Errorf("assertions[%d]: sequence is required for trace_order", index)
		}
	case AssertMetric:
		if a.Metric == "" {
			return fmt.Errorf("assertions[%d]: metric is required for metric", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for metric", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
