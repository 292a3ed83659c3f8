package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", FormatEvent(event))
		}
	}

	return buf.String()
}

// AssertionContext carries what assertions need beyond the result.
type AssertionContext struct {
	// Calls is the history spy the bridge and middleware navigate through.
	Calls *testutil.RecordingHistory
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertHistoryPath:
		return assertStateString(result, a.Type, "history_path", a.Path)
	case AssertStorePath:
		return assertStateString(result, a.Type, "store_path", a.Path)
	case AssertChangeID:
		return assertChangeID(result, a)
	case AssertHistoryCalls:
		return assertHistoryCalls(result, a, actx)
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertMetric:
		return assertMetric(result, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertStateString(result *Result, typ, key, want string) error {
	got, _ := result.State[key].(string)
	if got != want {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s %q", key, want),
			Actual:   fmt.Sprintf("%s %q", key, got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertChangeID(result *Result, a Assertion) error {
	got, ok := result.State["change_id"].(int64)
	if !ok || got != *a.Value {
		return &AssertionError{
			Type:     AssertChangeID,
			Expected: fmt.Sprintf("change_id %d", *a.Value),
			Actual:   fmt.Sprintf("change_id %v", result.State["change_id"]),
		}
	}
	return nil
}

// assertHistoryCalls counts calls the bridge and middleware made, all of
// them or those using Method.
func assertHistoryCalls(result *Result, a Assertion, actx *AssertionContext) error {
	var got int
	switch {
	case actx == nil || actx.Calls == nil:
		return fmt.Errorf("history_calls needs the call recorder")
	case a.Method != "":
		got = actx.Calls.Count(routing.Method(a.Method))
	default:
		got = len(actx.Calls.Calls())
	}

	if got != a.Count {
		what := "history calls"
		if a.Method != "" {
			what = a.Method + " calls"
		}
		return &AssertionError{
			Type:     AssertHistoryCalls,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", got, what),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Matches(a.TraceMatch) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeMatch(a.TraceMatch),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count events match.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Matches(a.TraceMatch) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s x%d", describeMatch(a.TraceMatch), a.Count),
			Actual:   fmt.Sprintf("x%d", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the sequence matches events in order.
// Matches need not be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Sequence) && event.Matches(a.Sequence[next]) {
			next++
		}
	}

	if next < len(a.Sequence) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("%d events in order", len(a.Sequence)),
			Actual:   fmt.Sprintf("no %s after the first %d", describeMatch(a.Sequence[next]), next),
			Trace:    trace,
		}
	}
	return nil
}

// assertMetric sums the series of Metric whose labels include Labels.
func assertMetric(result *Result, a Assertion) error {
	var sum float64
	for _, s := range result.series {
		if s.Name != a.Metric || !hasLabels(s.Labels, a.Labels) {
			continue
		}
		sum += s.Value
	}

	if sum != float64(*a.Value) {
		return &AssertionError{
			Type:     AssertMetric,
			Expected: fmt.Sprintf("%s%v = %d", a.Metric, a.Labels, *a.Value),
			Actual:   fmt.Sprintf("%g", sum),
		}
	}
	return nil
}

func hasLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func describeMatch(m TraceMatch) string {
	var parts []string
	if m.Event != "" {
		parts = append(parts, "event="+m.Event)
	}
	if m.Name != "" {
		parts = append(parts, "name="+m.Name)
	}
	if m.Path != "" {
		parts = append(parts, "path="+m.Path)
	}
	if len(parts) == 0 {
		return "any event"
	}
	return strings.Join(parts, " ")
}

// FormatEvent renders an event on one line.
func FormatEvent(e TraceEvent) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "[%d] %s", e.Seq, e.Type)
	if e.Name != "" {
		fmt.Fprintf(&buf, " %s", e.Name)
	}
	if e.Path != "" {
		fmt.Fprintf(&buf, " %s", e.Path)
	}
	if e.Key != "" {
		fmt.Fprintf(&buf, " key=%s", e.Key)
	}
	if e.Type == EventStore {
		fmt.Fprintf(&buf, " change_id=%d", e.ChangeID)
	}
	if e.Ref != 0 {
		fmt.Fprintf(&buf, " ref=%d", e.Ref)
	}
	if e.N != 0 {
		fmt.Fprintf(&buf, " n=%d", e.N)
	}
	if e.Silent {
		buf.WriteString(" silent")
	}
	if e.Message != "" {
		fmt.Fprintf(&buf, ": %s", e.Message)
	}
	return buf.String()
}
