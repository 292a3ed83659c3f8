package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/routesync/internal/engine"
	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/metrics"
	"github.com/roach88/routesync/internal/middleware"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
	"github.com/roach88/routesync/internal/testutil"
)

// Harness is the scenario execution engine.
// Every run gets a fresh history, store, recorder and metrics registry;
// entry keys and trace seqs are sequential, so traces are reproducible.
type Harness struct {
	clock    *store.Clock
	mem      *history.Memory
	calls    *testutil.RecordingHistory
	store    *store.Store
	recorder *store.Recorder
	bridge   *engine.Bridge
	registry *prometheus.Registry
	logger   *slog.Logger
	result   *Result
}

// RunOption configures Run.
type RunOption func(*Harness)

// WithLogger routes bridge, middleware and history logs to logger.
// Logs are discarded by default.
func WithLogger(logger *slog.Logger) RunOption {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the history, guards and the store
//  2. Connect the bridge
//  3. Execute steps, recording the trace
//  4. Evaluate assertions against the trace and final state
//
// Step failures (a blocked or out of range navigation) are recorded as
// error events; only a failure to connect aborts the run.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	h := &Harness{
		clock:    store.NewClock(),
		registry: prometheus.NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		result:   NewResult(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.setup(scenario); err != nil {
		return nil, err
	}
	defer h.bridge.Close()

	for i, step := range scenario.Steps {
		if err := h.executeStep(step); err != nil {
			h.trace(TraceEvent{Type: EventError, Name: stepName(step), Message: err.Error()})
			h.logger.Debug("step failed", "step", i, "error", err)
		}
	}

	h.snapshot()

	actx := &AssertionContext{Calls: h.calls}
	for _, errMsg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(errMsg)
	}

	return h.result, nil
}

// setup builds the collaborators and connects them.
func (h *Harness) setup(scenario *Scenario) error {
	index := -1
	if scenario.History.Index != nil {
		index = *scenario.History.Index
	}
	h.mem = history.NewMemory(
		history.WithInitialEntries(scenario.History.entries()...),
		history.WithInitialIndex(index),
		history.WithKeys(history.NewSequentialKeys("")),
		history.WithLogger(h.logger),
	)
	h.calls = testutil.NewRecordingHistory(h.mem)
	h.calls.Observe(h.traceCall)

	// Trace observers register before the bridge so each notification is
	// traced before the bridge reacts to it.
	h.mem.Listen(h.traceHistory)

	collector := metrics.New(metrics.WithRegistry(h.registry))

	reducer := testutil.RootReducer()
	h.recorder = store.NewRecorder(reducer)

	var mw []store.Middleware
	if scenario.Options.Intercept {
		mw = append(mw, middleware.Router(h.calls,
			middleware.WithLogger(h.logger),
			middleware.WithMetrics(collector),
		))
	}
	mw = append(mw, h.recorder.Middleware(), h.traceActions())

	storeOpts := []store.Option{store.WithLogger(h.logger), store.WithMiddleware(mw...)}
	if scenario.Options.InitialPath != "" {
		loc := ir.ParsePath(scenario.Options.InitialPath)
		storeOpts = append(storeOpts, store.WithInitialState(map[string]any{
			routing.DefaultKey: &routing.State{Location: &loc},
		}))
	}
	h.store = store.New(reducer, storeOpts...)
	h.store.Subscribe(h.traceStore)

	for _, g := range scenario.Guards {
		h.mem.ListenBefore(h.guard(g))
	}

	bridgeOpts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithMetrics(collector),
	}
	if p := scenario.Options.SamePathPolicy; p != "" {
		policy, err := engine.ParseSamePathPolicy(p)
		if err != nil {
			return fmt.Errorf("failed to configure bridge: %w", err)
		}
		bridgeOpts = append(bridgeOpts, engine.WithSamePathPolicy(policy))
	}
	if adjust := scenario.Options.AdjustURLOnReplay; adjust != nil {
		bridgeOpts = append(bridgeOpts, engine.WithAdjustURLOnReplay(*adjust))
	}
	if depth := scenario.Options.MaxSyncDepth; depth > 0 {
		bridgeOpts = append(bridgeOpts, engine.WithMaxSyncDepth(depth))
	}

	bridge, err := engine.Connect(h.calls, h.store, bridgeOpts...)
	if err != nil {
		return fmt.Errorf("failed to connect bridge: %w", err)
	}
	h.bridge = bridge
	return nil
}

// guard turns a scenario guard into a listenBefore hook.
func (h *Harness) guard(g Guard) func(ir.Location) error {
	return func(loc ir.Location) error {
		if loc.Pathname != g.Path {
			return nil
		}
		if g.Block {
			return fmt.Errorf("guarded path %s", g.Path)
		}
		redirect := ir.ParsePath(g.Redirect).WithAction(ir.ActionReplace)
		h.store.Dispatch(routing.LocationChanged(redirect))
		return nil
	}
}

// executeStep runs one step.
func (h *Harness) executeStep(step Step) error {
	event := TraceEvent{Type: EventStep, Name: stepName(step), Path: step.Path, N: step.N, Ref: step.Seq}
	h.trace(event)

	state, err := ir.ValueOf(step.State)
	if err != nil {
		return err
	}
	target := ir.NewLocation(step.Path, state)

	switch {
	case step.History != "":
		return h.navigateHistory(step, target)

	case step.Dispatch != "":
		h.store.Dispatch(dispatchAction(step, target))
		return nil

	case step.Action != "":
		h.store.Dispatch(ir.Action{Type: step.Action})
		return nil

	case step.Devtools != "":
		switch step.Devtools {
		case OpReset:
			h.recorder.Reset()
		case OpCommit:
			h.recorder.Commit()
		case OpToggle:
			return h.recorder.Toggle(step.Seq)
		case OpJump:
			return h.recorder.JumpTo(step.Seq)
		}
		return nil

	case step.Close:
		return h.bridge.Close()
	}
	return errors.New("empty step")
}

// navigateHistory moves the history directly, bypassing the call recorder.
func (h *Harness) navigateHistory(step Step, target ir.Location) error {
	switch step.History {
	case OpPush:
		return h.mem.Push(target)
	case OpReplace:
		return h.mem.Replace(target)
	case OpGo:
		return h.mem.Go(step.N)
	case OpBack:
		return h.mem.GoBack()
	case OpForward:
		return h.mem.GoForward()
	}
	return fmt.Errorf("unknown history operation %q", step.History)
}

// dispatchAction builds the routing action a dispatch step sends.
func dispatchAction(step Step, target ir.Location) ir.Action {
	switch step.Dispatch {
	case OpPush:
		return routing.Push(target)
	case OpReplace:
		return routing.Replace(target)
	case OpGo:
		return routing.Go(step.N)
	case OpBack:
		return routing.GoBack()
	case OpForward:
		return routing.GoForward()
	}
	if step.Silent {
		return routing.LocationChanged(target, routing.WithoutRouterUpdate())
	}
	return routing.LocationChanged(target)
}

func stepName(step Step) string {
	switch {
	case step.History != "":
		return "history." + step.History
	case step.Dispatch != "":
		return "dispatch." + step.Dispatch
	case step.Action != "":
		return "action." + step.Action
	case step.Devtools != "":
		return "devtools." + step.Devtools
	case step.Close:
		return "close"
	}
	return ""
}

func (h *Harness) trace(event TraceEvent) {
	event.Seq = h.clock.Next()
	h.result.AddTrace(event)
}

func (h *Harness) traceHistory(loc ir.Location) {
	h.trace(TraceEvent{Type: EventHistory, Name: string(loc.Action), Path: loc.Path(), Key: loc.Key})
}

func (h *Harness) traceCall(c testutil.Call) {
	event := TraceEvent{Type: EventCall, Name: string(c.Method), N: c.N}
	if c.Method == routing.MethodPush || c.Method == routing.MethodReplace {
		event.Path = c.Location.Path()
	}
	h.trace(event)
}

func (h *Harness) traceStore() {
	event := TraceEvent{Type: EventStore}
	if state := testutil.RouterState(h.store); state != nil {
		event.ChangeID = state.ChangeID
		if state.Location != nil {
			event.Path = state.Location.Path()
		}
	}
	h.trace(event)
}

// traceActions is installed after the recorder, so the last recorded
// entry is the action passing through.
func (h *Harness) traceActions() store.Middleware {
	return func(store.API) func(store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(action ir.Action) ir.Action {
				event := TraceEvent{Type: EventAction, Name: action.Type}
				if entries := h.recorder.Entries(); len(entries) > 0 {
					event.Ref = entries[len(entries)-1].Seq
				}
				if p, ok := action.Payload.(routing.LocationChangePayload); ok {
					event.Path = p.Location.Path()
					event.Silent = p.NoRouterUpdate
				}
				h.trace(event)
				return next(action)
			}
		}
	}
}

// snapshot captures the final state and metrics.
func (h *Harness) snapshot() {
	state := h.result.State
	state["history_path"] = h.mem.Location().Path()
	state["history_index"] = h.mem.Index()
	state["store_path"] = testutil.StorePath(h.store)
	state["history_calls"] = len(h.calls.Calls())
	if rs := testutil.RouterState(h.store); rs != nil {
		state["change_id"] = rs.ChangeID
	}

	families, err := h.registry.Gather()
	if err != nil {
		h.logger.Warn("failed to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
				labels[lp.GetName()] = lp.GetValue()
			}
			sort.Strings(pairs)

			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			}
			h.result.Metrics[mf.GetName()+"{"+strings.Join(pairs, ",")+"}"] = value
			h.result.series = append(h.result.series, Series{Name: mf.GetName(), Labels: labels, Value: value})
		}
	}
}
