package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/metrics"
	"github.com/roach88/routesync/internal/routing"
)

// Store is the store contract the bridge consumes.
type Store interface {
	GetState() any
	Dispatch(ir.Action) ir.Action
	Subscribe(listener func()) (unsubscribe func())
}

// ReplayReporter is implemented by stores that can tell a replaced state
// from a dispatched one, such as store.Store. Without it the bridge treats
// every change that does not raise ChangeID as a replay.
type ReplayReporter interface {
	Replaying() bool
}

// Bridge keeps a history and a store in sync. It is created active by
// Connect and becomes inert after Close.
type Bridge struct {
	history history.History
	store   Store
	opts    Options
	log     *slog.Logger
	metrics *metrics.Collector

	// bookkeeping, touched only from callbacks
	syncing         bool
	depth           *depthGuard
	lastState       *routing.State
	lastChangeID    int64
	firstLocation   *ir.Location
	currentLocation *ir.Location

	unlistenHistory  func()
	unsubscribeStore func()

	mu        sync.Mutex
	listeners []func()

	closed    atomic.Bool
	closeOnce sync.Once
}

// Connect wires h and s together and returns the active bridge.
//
// The store must already hold router state at the selector; otherwise
// Connect returns a *ConfigError wrapping ErrRouterStateMissing before it
// registers anything with either collaborator.
func Connect(h history.History, s Store, opts ...Option) (*Bridge, error) {
	if h == nil {
		return nil, &ConfigError{Code: ErrCodeNilHistory, Message: "history must not be nil"}
	}
	if s == nil {
		return nil, &ConfigError{Code: ErrCodeNilStore, Message: "store must not be nil"}
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	initial := o.Selector(s.GetState())
	if initial == nil {
		return nil, &ConfigError{
			Code: ErrCodeRouterStateMissing,
			Message: fmt.Sprintf("no router state in store state of type %T; "+
				"install routing.Reducer under %q or pass WithSelector", s.GetState(), routing.DefaultKey),
			Err: ErrRouterStateMissing,
		}
	}

	b := &Bridge{
		history:      h,
		store:        s,
		opts:         o,
		log:          o.Logger,
		metrics:      o.Metrics,
		depth:        newDepthGuard(o.MaxSyncDepth),
		lastState:    initial,
		lastChangeID: initial.ChangeID,
	}

	b.unsubscribeStore = s.Subscribe(b.handleStoreChange)
	b.unlistenHistory = h.Listen(b.handleHistoryChange)

	// Some histories do not report the current location on Listen.
	if b.currentLocation == nil {
		if loc, ok := h.(history.Locator); ok {
			b.handleHistoryChange(loc.Location())
		}
	}

	if initial.Location != nil && o.AdjustURLOnReplay {
		b.log.Info("restoring persisted location", "path", initial.Location.Path())
		b.reconcile(initial)
		// a reset returns to the restored location, not the one it replaced
		if b.currentLocation != nil {
			b.firstLocation = b.currentLocation
		}
	}

	b.metrics.BridgeOpened()
	b.log.Info("bridge connected",
		"adjust_url_on_replay", o.AdjustURLOnReplay,
		"same_path_policy", o.SamePathPolicy.String(),
		"max_sync_depth", o.MaxSyncDepth,
	)
	return b, nil
}

// Close tears the bridge down. Both subscriptions and every Listen
// registration are removed before Close returns; later callbacks are
// ignored. Calling Close again is a no-op.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.unsubscribeStore()
		b.unlistenHistory()

		b.mu.Lock()
		listeners := b.listeners
		b.listeners = nil
		b.mu.Unlock()
		for _, unsubscribe := range listeners {
			unsubscribe()
		}

		b.metrics.BridgeClosed()
		b.log.Info("bridge closed")
	})
	return nil
}

// Listen registers a listener that follows the store's idea of the current
// location: it is called immediately and after every store notification
// with the stored location, or with the first location history reported
// when the store has none. The returned function unsubscribes immediately.
func (b *Bridge) Listen(listener func(ir.Location)) func() {
	if loc := b.storeLocation(); loc != nil {
		listener(*loc)
	}

	var unsubscribed atomic.Bool
	unsubscribe := b.store.Subscribe(func() {
		if unsubscribed.Load() || b.closed.Load() {
			return
		}
		if loc := b.storeLocation(); loc != nil {
			listener(*loc)
		}
	})

	var once sync.Once
	stop := func() {
		once.Do(func() {
			unsubscribed.Store(true)
			unsubscribe()
		})
	}

	b.mu.Lock()
	b.listeners = append(b.listeners, stop)
	b.mu.Unlock()
	return stop
}

// FirstLocation returns the first location history reported, the one a
// reset restores.
func (b *Bridge) FirstLocation() (ir.Location, bool) {
	if b.firstLocation == nil {
		return ir.Location{}, false
	}
	return *b.firstLocation, true
}

// CurrentLocation returns the last location history reported.
func (b *Bridge) CurrentLocation() (ir.Location, bool) {
	if b.currentLocation == nil {
		return ir.Location{}, false
	}
	return *b.currentLocation, true
}

func (b *Bridge) routerState() *routing.State {
	return b.opts.Selector(b.store.GetState())
}

// storeLocation is the store's location, falling back to the first
// observed one.
func (b *Bridge) storeLocation() *ir.Location {
	if state := b.routerState(); state != nil && state.Location != nil {
		return state.Location
	}
	return b.firstLocation
}

// handleHistoryChange forwards history notifications into the store.
func (b *Bridge) handleHistoryChange(loc ir.Location) {
	if b.closed.Load() {
		return
	}
	action := string(loc.Action)

	prev := b.currentLocation
	b.currentLocation = &loc
	first := b.firstLocation == nil
	if first {
		b.firstLocation = &loc
	}

	if b.syncing {
		b.metrics.HistoryEvent(action, metrics.HistorySyncing)
		b.log.Debug("history change caused by bridge", "path", loc.Path(), "key", loc.Key)
		return
	}

	state := b.routerState()
	var stored *ir.Location
	if state != nil {
		stored = state.Location
	}

	if first && stored != nil {
		b.metrics.HistoryEvent(action, metrics.HistoryPersisted)
		b.log.Debug("store already holds a location", "path", loc.Path(), "stored", stored.Path())
		return
	}

	if stored != nil && b.opts.SamePathPolicy.same(&loc, stored, prev) {
		b.metrics.HistoryEvent(action, metrics.HistorySuppressed)
		b.log.Debug("history location already in store", "path", loc.Path(), "key", loc.Key)
		return
	}

	b.metrics.HistoryEvent(action, metrics.HistoryDispatched)
	b.log.Debug("dispatching history location", "path", loc.Path(), "action", action, "key", loc.Key)
	b.store.Dispatch(routing.LocationChanged(loc, routing.WithoutRouterUpdate()))
}

// handleStoreChange drives history from store notifications.
func (b *Bridge) handleStoreChange() {
	if b.closed.Load() {
		return
	}

	state := b.routerState()
	if state == nil {
		b.log.Warn("router state missing from store")
		return
	}
	if state == b.lastState {
		b.metrics.StoreEvent(metrics.StoreUnchanged)
		return
	}

	replay := b.replaying()
	intent := !replay && state.ChangeID > b.lastChangeID
	b.lastState = state
	b.lastChangeID = state.ChangeID

	// history echoes land here too; they need nothing from history
	if state.Location != nil && b.currentLocation != nil && ir.SameLocation(state.Location, b.currentLocation) {
		b.metrics.StoreEvent(metrics.StoreInSync)
		return
	}

	if !intent && !b.opts.AdjustURLOnReplay {
		b.metrics.StoreEvent(metrics.StoreReplaySkipped)
		b.log.Debug("router state replaced, not adjusting history", "change_id", state.ChangeID)
		return
	}
	b.reconcile(state)
}

func (b *Bridge) replaying() bool {
	if r, ok := b.store.(ReplayReporter); ok {
		return r.Replaying()
	}
	return false
}

// reconcile moves history to the location state describes, if it is not
// there already.
func (b *Bridge) reconcile(state *routing.State) {
	target := state.Location
	if target == nil {
		target = b.firstLocation
	}
	if target == nil {
		return
	}
	if b.currentLocation != nil && ir.SameLocation(target, b.currentLocation) {
		b.metrics.StoreEvent(metrics.StoreInSync)
		return
	}

	b.metrics.StoreEvent(metrics.StoreNavigated)
	b.navigate(*target, state.ChangeID)
}

// navigate calls history with the syncing flag held.
func (b *Bridge) navigate(target ir.Location, changeID int64) {
	path := target.Path()
	if err := b.depth.enter(path); err != nil {
		b.fail(err)
		return
	}
	defer b.depth.exit()

	prevSyncing := b.syncing
	b.syncing = true
	defer func() { b.syncing = prevSyncing }()

	prevCurrent := b.currentLocation
	claimed := &target
	b.currentLocation = claimed

	method := routing.MethodPush
	call := b.history.Push
	if target.Action == ir.ActionReplace {
		method = routing.MethodReplace
		call = b.history.Replace
	}

	b.log.Debug("driving history to store location",
		"method", string(method),
		"path", path,
		"change_id", changeID,
		"depth", b.depth.Current(),
	)
	if err := call(target); err != nil {
		if b.currentLocation == claimed {
			b.currentLocation = prevCurrent
		}
		b.fail(&RuntimeError{
			Code:    ErrCodeNavigationFailed,
			Message: fmt.Sprintf("history %s failed", method),
			Path:    path,
			Err:     err,
		})
		return
	}
	b.metrics.Navigation(string(method))
}

func (b *Bridge) fail(err error) {
	var re *RuntimeError
	code := "UNKNOWN"
	if errors.As(err, &re) {
		code = string(re.Code)
	}
	b.metrics.Error(code)

	if errors.Is(err, history.ErrBlocked) {
		b.log.Info("navigation blocked by history", "error", err)
		return
	}
	b.log.Error("bridge navigation failed", "code", code, "error", err)
}
