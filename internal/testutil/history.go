package testutil

import (
	"sync"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
)

// Call is one recorded history mutation.
type Call struct {
	Method   routing.Method
	Location ir.Location // push and replace
	N        int         // go
}

// RecordingHistory wraps a history and records every mutation made
// through it. Mutations made on the wrapped history directly are not
// recorded, which is how tests separate "the bridge pushed" from "the user
// pushed".
type RecordingHistory struct {
	history.History

	mu       sync.Mutex
	calls    []Call
	observer func(Call)
}

// NewRecordingHistory wraps h.
func NewRecordingHistory(h history.History) *RecordingHistory {
	return &RecordingHistory{History: h}
}

// Observe registers fn to be called with every call as it is recorded,
// before it reaches the wrapped history. A later Observe replaces fn.
func (r *RecordingHistory) Observe(fn func(Call)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

func (r *RecordingHistory) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer(c)
	}
}

// Push records and delegates.
func (r *RecordingHistory) Push(loc ir.Location) error {
	r.record(Call{Method: routing.MethodPush, Location: loc})
	return r.History.Push(loc)
}

// Replace records and delegates.
func (r *RecordingHistory) Replace(loc ir.Location) error {
	r.record(Call{Method: routing.MethodReplace, Location: loc})
	return r.History.Replace(loc)
}

// Go records and delegates.
func (r *RecordingHistory) Go(n int) error {
	r.record(Call{Method: routing.MethodGo, N: n})
	return r.History.Go(n)
}

// GoBack records and delegates.
func (r *RecordingHistory) GoBack() error {
	r.record(Call{Method: routing.MethodGoBack})
	return r.History.GoBack()
}

// GoForward records and delegates.
func (r *RecordingHistory) GoForward() error {
	r.record(Call{Method: routing.MethodGoForward})
	return r.History.GoForward()
}

// ListenBefore delegates when the wrapped history supports hooks and is a
// no-op otherwise.
func (r *RecordingHistory) ListenBefore(hook func(ir.Location) error) func() {
	if bl, ok := r.History.(history.BeforeListener); ok {
		return bl.ListenBefore(hook)
	}
	return func() {}
}

// Calls returns a copy of the recorded calls.
func (r *RecordingHistory) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many calls used method.
func (r *RecordingHistory) Count(method routing.Method) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Mutations returns the number of push and replace calls.
func (r *RecordingHistory) Mutations() int {
	return r.Count(routing.MethodPush) + r.Count(routing.MethodReplace)
}

// Reset forgets recorded calls.
func (r *RecordingHistory) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// NewMemory returns a memory history with sequential keys ("k1", "k2", ...)
// and the given initial entries.
func NewMemory(paths ...string) *history.Memory {
	opts := []history.MemoryOption{
		history.WithKeys(history.NewSequentialKeys("")),
		history.WithLogger(DiscardLogger()),
	}
	if len(paths) > 0 {
		opts = append(opts, history.WithInitialEntries(paths...))
	}
	return history.NewMemory(opts...)
}
