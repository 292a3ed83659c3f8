package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RootReducer combines routing.Reducer under routing.DefaultKey with a
// "count" slice that counts "inc" actions, so tests have an unrelated
// slice to poke.
func RootReducer() store.Reducer {
	return store.CombineReducers(map[string]store.Reducer{
		routing.DefaultKey: routing.Reducer,
		"count":            countReducer,
	})
}

func countReducer(state any, action ir.Action) any {
	n, _ := state.(int)
	if action.Type == "inc" {
		return n + 1
	}
	return n
}

// NewStore creates a store over RootReducer.
func NewStore(opts ...store.Option) *store.Store {
	opts = append([]store.Option{store.WithLogger(DiscardLogger())}, opts...)
	return store.New(RootReducer(), opts...)
}

// NewRecordedStore creates a store over RootReducer with a recorder as the
// innermost middleware, after mw.
func NewRecordedStore(mw ...store.Middleware) (*store.Store, *store.Recorder) {
	rec := store.NewRecorder(RootReducer())
	s := NewStore(store.WithMiddleware(append(mw, rec.Middleware())...))
	return s, rec
}

// RouterState reads the router slice under routing.DefaultKey.
func RouterState(s interface{ GetState() any }) *routing.State {
	return routing.DefaultSelector(s.GetState())
}

// StorePath returns the store location's path, or "" when unset.
func StorePath(s interface{ GetState() any }) string {
	state := RouterState(s)
	if state == nil || state.Location == nil {
		return ""
	}
	return state.Location.Path()
}

// CountNotifications subscribes to s and returns a function reporting how
// many notifications arrived since.
func CountNotifications(s interface{ Subscribe(func()) func() }) func() int {
	n := 0
	s.Subscribe(func() { n++ })
	return func() int { return n }
}
