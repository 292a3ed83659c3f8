package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/routesync/internal/ir"
)

// Entry is one recorded action.
type Entry struct {
	Seq     int64
	Action  ir.Action
	Skipped bool
}

// Recorder logs the actions that reach the reducer and recomputes state
// from the log on demand.
//
// Install it with WithMiddleware(rec.Middleware()) as the last middleware,
// so actions swallowed earlier in the chain are not recorded. The store
// passed to the middleware must support ReplaceState.
type Recorder struct {
	mu      sync.Mutex
	reducer Reducer
	clock   *Clock

	target    replacer
	committed any
	entries   []Entry
	cursor    int // entries[:cursor] are applied
}

type replacer interface {
	GetState() any
	ReplaceState(any)
}

// NewRecorder creates a recorder that recomputes state with reducer.
func NewRecorder(reducer Reducer) *Recorder {
	return &Recorder{
		reducer: reducer,
		clock:   NewClock(),
	}
}

// Middleware records every action that passes through it.
func (r *Recorder) Middleware() Middleware {
	return func(api API) func(next DispatchFunc) DispatchFunc {
		target, ok := api.(replacer)
		if !ok {
			panic(fmt.Sprintf("store: Recorder needs a store with ReplaceState, got %T", api))
		}
		r.mu.Lock()
		r.target = target
		r.committed = target.GetState()
		r.mu.Unlock()

		return func(next DispatchFunc) DispatchFunc {
			return func(action ir.Action) ir.Action {
				r.record(action)
				return next(action)
			}
		}
	}
}

func (r *Recorder) record(action ir.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// recording after a jump into the past drops the abandoned future
	r.entries = append(r.entries[:r.cursor], Entry{Seq: r.clock.Next(), Action: action})
	r.cursor = len(r.entries)
}

// Entries returns a copy of the log.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Reset discards the log and restores the last committed state (the
// initialized state unless Commit was called).
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.cursor = 0
	r.mu.Unlock()
	r.recompute()
}

// Commit makes the current state the new baseline and clears the log.
func (r *Recorder) Commit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.target != nil {
		r.committed = r.target.GetState()
	}
	r.entries = nil
	r.cursor = 0
}

// Toggle skips or restores the entry with the given seq and recomputes.
func (r *Recorder) Toggle(seq int64) error {
	r.mu.Lock()
	i, err := r.indexOf(seq)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.entries[i].Skipped = !r.entries[i].Skipped
	r.mu.Unlock()

	r.recompute()
	return nil
}

// JumpTo recomputes state as of the entry with the given seq. Seq 0 jumps
// to the committed state.
func (r *Recorder) JumpTo(seq int64) error {
	r.mu.Lock()
	if seq == 0 {
		r.cursor = 0
	} else {
		i, err := r.indexOf(seq)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.cursor = i + 1
	}
	r.mu.Unlock()

	r.recompute()
	return nil
}

func (r *Recorder) indexOf(seq int64) (int, error) {
	i := slices.IndexFunc(r.entries, func(e Entry) bool { return e.Seq == seq })
	if i < 0 {
		return 0, fmt.Errorf("store: no recorded action with seq %d", seq)
	}
	return i, nil
}

func (r *Recorder) recompute() {
	r.mu.Lock()
	target := r.target
	state := r.committed
	for _, e := range r.entries[:r.cursor] {
		if !e.Skipped {
			state = r.reducer(state, e.Action)
		}
	}
	r.mu.Unlock()

	if target != nil {
		target.ReplaceState(state)
	}
}
