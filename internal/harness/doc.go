// Package harness runs synchronization scenarios against a real bridge.
//
// A scenario seeds an in-memory history, builds a store with the routing
// reducer and an action recorder, connects the two and then drives either
// side. Everything observed along the way is recorded as a trace, which
// assertions inspect and golden files pin down.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: push_then_back
//	description: "History navigation reaches the store"
//	history:
//	  entries: ["/"]
//	options:
//	  intercept: true
//	  same_path_policy: notify-always
//	guards:
//	  - path: /admin
//	    block: true
//	steps:
//	  - history: push
//	    path: /foo
//	  - dispatch: push
//	    path: /bar
//	  - devtools: toggle
//	    seq: 2
//	assertions:
//	  - type: store_path
//	    path: /bar
//	  - type: trace_count
//	    event: call
//	    name: push
//	    count: 1
//
// # Steps
//
//   - history: push, replace, go, back, forward on the history itself
//   - dispatch: push, replace, go, back, forward intents, or location_changed
//   - action: a plain action type (the "inc" action bumps a counter slice)
//   - devtools: reset, commit, toggle (seq), jump (seq, 0 for the baseline)
//   - close: tear the bridge down
//
// # Trace Events
//
// Each event has a type and a seq from a logical clock:
//
//   - step: a step started
//   - history: a history notification (name is PUSH, REPLACE or POP)
//   - action: an action reached the reducer (ref is its recorder seq)
//   - store: a store notification with the stored path and change id
//   - call: the bridge or middleware called history
//   - error: a step failed, for example a blocked transition
//
// # Assertion Types
//
//   - history_path, store_path: the final path on either side
//   - change_id: the final router state change id
//   - history_calls: calls made through the history, optionally by method
//   - trace_contains, trace_count, trace_order: event matching
//   - metric: the summed value of a bridge metric
//
// Entry keys come from a sequential generator and seqs from a logical
// clock, so identical scenarios produce identical traces.
package harness
