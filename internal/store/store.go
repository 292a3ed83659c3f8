package store

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/routesync/internal/ir"
)

// InitAction is dispatched to the reducer once when a store is created.
const InitAction = "@@store/INIT"

// Reducer folds an action into state. It must be pure and must not dispatch.
type Reducer func(state any, action ir.Action) any

// Store is an observable state container.
type Store struct {
	mu      sync.Mutex
	reducer Reducer
	state   any
	subs    []*subscriber

	dispatch DispatchFunc
	logger   *slog.Logger

	// set while subscribers are notified of a ReplaceState
	replaying atomic.Bool
}

type subscriber struct {
	fn     func()
	active atomic.Bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	initial    any
	middleware []Middleware
	logger     *slog.Logger
}

// WithInitialState seeds the state passed to the reducer's first call.
func WithInitialState(state any) Option {
	return func(o *options) {
		o.initial = state
	}
}

// WithMiddleware appends middleware to the dispatch chain. The first
// middleware given sees each action first.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a store. The reducer runs once with InitAction before New
// returns, and middleware is bound after that, so a middleware reading
// GetState at bind time sees the initialized state.
func New(reducer Reducer, opts ...Option) *Store {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		reducer: reducer,
		logger:  o.logger,
	}
	s.state = reducer(o.initial, ir.Action{Type: InitAction})
	s.dispatch = chain(s, s.reduce, o.middleware)
	return s
}

// GetState returns the current state.
func (s *Store) GetState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch sends action through the middleware chain and returns whatever
// the chain returns (the action itself unless a middleware substitutes it).
func (s *Store) Dispatch(action ir.Action) ir.Action {
	return s.dispatch(action)
}

// Subscribe registers fn to run after every dispatch and state replacement.
// The returned function unsubscribes with immediate effect; calling it again
// is a no-op.
func (s *Store) Subscribe(fn func()) func() {
	sub := &subscriber{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		sub.active.Store(false)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(x *subscriber) bool { return x == sub })
	}
}

// ReplaceState installs state wholesale, bypassing the reducer, and
// notifies subscribers.
func (s *Store) ReplaceState(state any) {
	s.mu.Lock()
	s.state = state
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	s.logger.Debug("state replaced")
	prev := s.replaying.Swap(true)
	defer s.replaying.Store(prev)
	notify(subs)
}

// Replaying reports whether the notification being delivered comes from
// ReplaceState rather than a dispatch. A dispatch made by a subscriber
// during a replay is not a replay.
func (s *Store) Replaying() bool {
	return s.replaying.Load()
}

// reduce is the innermost dispatch.
func (s *Store) reduce(action ir.Action) ir.Action {
	s.mu.Lock()
	s.state = s.reducer(s.state, action)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	prev := s.replaying.Swap(false)
	defer s.replaying.Store(prev)
	notify(subs)
	return action
}

func notify(subs []*subscriber) {
	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn()
		}
	}
}
