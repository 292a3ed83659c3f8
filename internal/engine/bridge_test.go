package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
	"github.com/roach88/routesync/internal/testutil"
)

func TestConnect_DispatchesInitialLocation(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())

	state := testutil.RouterState(f.store)
	require.NotNil(t, state.Location)
	assert.Equal(t, "/", state.Location.Path())
	assert.Equal(t, ir.ActionPop, state.Location.Action)
	assert.Equal(t, "k1", state.Location.Key)
	assert.Equal(t, int64(0), state.ChangeID)

	first, ok := f.bridge.FirstLocation()
	require.True(t, ok)
	assert.Equal(t, "/", first.Path())
	assert.Zero(t, f.hist.Mutations())
}

func TestConnect_SeedsFromLocatorWhenListenIsSilent(t *testing.T) {
	mem := history.NewMemory(
		history.WithKeys(history.NewSequentialKeys("")),
		history.WithNotifyOnListen(false),
		history.WithInitialEntries("/start"),
		history.WithLogger(testutil.DiscardLogger()),
	)
	s := testutil.NewStore()
	// call Connect on the memory itself: the spy does not implement Locator
	b, err := Connect(mem, s, WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "/start", testutil.StorePath(s))
	current, ok := b.CurrentLocation()
	require.True(t, ok)
	assert.Equal(t, "/start", current.Path())
}

func TestBridge_HistoryToStore(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())
	state := func() *routing.State { return testutil.RouterState(f.store) }

	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	assert.Equal(t, "/foo", state().Location.Path())
	assert.Equal(t, ir.ActionPush, state().Location.Action)

	barBaz := ir.NewObject(ir.O("bar", ir.String("baz")))
	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", barBaz)))
	assert.Equal(t, "/foo", state().Location.Path())
	assert.True(t, ir.Equal(barBaz, state().Location.State))

	require.NoError(t, f.mem.Replace(ir.NewLocation("/bar", nil)))
	assert.Equal(t, "/bar", state().Location.Path())
	assert.Equal(t, ir.ActionReplace, state().Location.Action)

	require.NoError(t, f.mem.Push(ir.NewLocation("/bar?query=1", nil)))
	assert.Equal(t, "?query=1", state().Location.Search)

	require.NoError(t, f.mem.Push(ir.NewLocation("/bar#baz", nil)))
	assert.Equal(t, "#baz", state().Location.Hash)

	require.NoError(t, f.mem.Replace(ir.NewLocation("/bar?query=1#hash=2", barBaz)))
	loc := state().Location
	assert.Equal(t, "/bar", loc.Pathname)
	assert.Equal(t, "?query=1", loc.Search)
	assert.Equal(t, "#hash=2", loc.Hash)
	assert.Equal(t, ir.ActionReplace, loc.Action)

	require.NoError(t, f.mem.GoBack())
	assert.Equal(t, "/bar?query=1", state().Location.Path())
	assert.Equal(t, ir.ActionPop, state().Location.Action)

	// none of it was an intent, and none of it echoed back
	assert.Equal(t, int64(0), state().ChangeID)
	assert.Zero(t, f.hist.Mutations())
}

func TestBridge_StoreIntentReachesHistoryOnce(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())

	f.store.Dispatch(routing.LocationChanged(ir.NewLocation("/bar", ir.String("s"))))

	assert.Equal(t, "/bar", f.mem.Location().Path())
	assert.Equal(t, ir.String("s"), f.mem.Location().State)
	assert.Equal(t, 1, f.hist.Count(routing.MethodPush))
	assert.Equal(t, 1, f.hist.Mutations())
	assert.Len(t, f.mem.Entries(), 2)
	assert.Equal(t, int64(1), testutil.RouterState(f.store).ChangeID)
}

func TestBridge_StoreIntentReplace(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())

	loc := ir.NewLocation("/swap", nil).WithAction(ir.ActionReplace)
	f.store.Dispatch(routing.LocationChanged(loc))

	assert.Equal(t, 1, f.hist.Count(routing.MethodReplace))
	assert.Zero(t, f.hist.Count(routing.MethodPush))
	require.Len(t, f.mem.Entries(), 1)
	assert.Equal(t, "/swap", f.mem.Entries()[0].Path())
}

func TestBridge_StoreIntentForCurrentLocationIsNoop(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())

	f.store.Dispatch(routing.LocationChanged(ir.NewLocation("/", nil)))

	assert.Equal(t, int64(1), testutil.RouterState(f.store).ChangeID)
	assert.Zero(t, f.hist.Mutations())
}

func TestBridge_UnrelatedActionsDoNotNavigate(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())
	before := testutil.RouterState(f.store)

	f.store.Dispatch(ir.Action{Type: "inc"})
	f.store.Dispatch(ir.Action{Type: "inc"})

	assert.Same(t, before, testutil.RouterState(f.store))
	assert.Zero(t, f.hist.Mutations())
}

func TestBridge_SamePathRenavigationNotifies(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())
	notifications := testutil.CountNotifications(f.store)

	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))

	assert.Equal(t, 2, notifications())
	assert.Equal(t, "k3", testutil.RouterState(f.store).Location.Key)
}

func TestBridge_SamePathAfterStoreIntentNotifies(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())

	f.store.Dispatch(routing.LocationChanged(ir.NewLocation("/foo", nil)))
	require.Equal(t, "/foo", f.mem.Location().Path())
	require.Empty(t, testutil.RouterState(f.store).Location.Key)
	notifications := testutil.CountNotifications(f.store)

	// the user pushes the same path again: a new entry the store must see
	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))

	assert.Equal(t, 1, notifications())
	state := testutil.RouterState(f.store)
	assert.Equal(t, "k3", state.Location.Key)
	assert.Equal(t, ir.ActionPush, state.Location.Action)
	assert.Equal(t, int64(1), state.ChangeID)
	assert.Equal(t, 1, f.hist.Mutations())
}

func TestBridge_SuppressSamePath(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore(), WithSamePathPolicy(SuppressSamePath))
	notifications := testutil.CountNotifications(f.store)

	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", ir.String("different state"))))

	assert.Equal(t, 2, notifications())
}

func TestBridge_StateComparedDeeply(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore(), WithSamePathPolicy(SuppressSamePath))
	notifications := testutil.CountNotifications(f.store)

	a := ir.NewObject(ir.O("tab", ir.String("x")), ir.O("page", ir.Int(2)))
	b := ir.NewObject(ir.O("page", ir.Int(2)), ir.O("tab", ir.String("x")))
	require.NoError(t, f.mem.Push(ir.NewLocation("/s", a)))
	require.NoError(t, f.mem.Push(ir.NewLocation("/s", b)))

	assert.Equal(t, 1, notifications())
}

func TestBridge_ListenFollowsStore(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())
	require.NoError(t, f.mem.Push(ir.NewLocation("/", nil)))

	var updates []string
	unlisten := f.bridge.Listen(func(loc ir.Location) {
		updates = append(updates, loc.Pathname)
	})

	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	require.NoError(t, f.mem.Replace(ir.NewLocation("/foo", nil)))

	assert.Equal(t, []string{"/", "/foo", "/foo", "/foo"}, updates)

	unlisten()
	unlisten()
	require.NoError(t, f.mem.Push(ir.NewLocation("/bar", nil)))
	assert.Len(t, updates, 4)
}

func TestBridge_CloseStopsPropagation(t *testing.T) {
	f := connect(t, testutil.NewMemory(), testutil.NewStore())
	var listened int
	f.bridge.Listen(func(ir.Location) { listened++ })
	listened = 0

	require.NoError(t, f.mem.Push(ir.NewLocation("/foo", nil)))
	assert.Equal(t, "/foo", testutil.StorePath(f.store))

	require.NoError(t, f.bridge.Close())

	require.NoError(t, f.mem.Push(ir.NewLocation("/bar", nil)))
	assert.Equal(t, "/foo", testutil.StorePath(f.store))

	f.store.Dispatch(routing.LocationChanged(ir.NewLocation("/baz", nil)))
	assert.Zero(t, f.hist.Mutations())
	assert.Equal(t, "/bar", f.mem.Location().Path())
	assert.Equal(t, 1, listened)

	assert.NotPanics(t, func() {
		assert.NoError(t, f.bridge.Close())
	})
}

func TestBridge_PersistedLocationIsRestored(t *testing.T) {
	s := testutil.NewStore()
	s.Dispatch(routing.LocationChanged(ir.NewLocation("/persisted", nil), routing.WithoutRouterUpdate()))
	notifications := testutil.CountNotifications(s)

	f := connect(t, testutil.NewMemory(), s)

	assert.Equal(t, "/persisted", testutil.StorePath(s))
	assert.Zero(t, notifications())
	assert.Equal(t, "/persisted", f.mem.Location().Path())
	assert.Equal(t, 1, f.hist.Count(routing.MethodPush))

	first, _ := f.bridge.FirstLocation()
	assert.Equal(t, "/persisted", first.Path())
}

func TestBridge_PersistedLocationWithoutURLAdjustment(t *testing.T) {
	s := testutil.NewStore()
	s.Dispatch(routing.LocationChanged(ir.NewLocation("/persisted", nil), routing.WithoutRouterUpdate()))

	f := connect(t, testutil.NewMemory(), s, WithAdjustURLOnReplay(false))

	assert.Equal(t, "/persisted", testutil.StorePath(s))
	assert.Equal(t, "/", f.mem.Location().Path())
	assert.Zero(t, f.hist.Mutations())

	// later history changes flow as usual
	require.NoError(t, f.mem.Push(ir.NewLocation("/next", nil)))
	assert.Equal(t, "/next", testutil.StorePath(s))
}

func TestBridge_CustomSelector(t *testing.T) {
	root := store.CombineReducers(map[string]store.Reducer{"router": routing.Reducer})

	_, err := Connect(testutil.NewMemory(), store.New(root), WithLogger(testutil.DiscardLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouterStateMissing)

	s := store.New(root)
	f := connect(t, testutil.NewMemory(), s, WithSelector(routing.SelectKey("router")))
	require.NoError(t, f.mem.Push(ir.NewLocation("/custom", nil)))

	state := routing.SelectKey("router")(s.GetState())
	require.NotNil(t, state)
	assert.Equal(t, "/custom", state.Location.Path())
}

func TestBridge_RootSelector(t *testing.T) {
	s := store.New(routing.Reducer)
	f := connect(t, testutil.NewMemory(), s, WithSelector(routing.SelectRoot))

	s.Dispatch(routing.LocationChanged(ir.NewLocation("/root", nil)))
	assert.Equal(t, "/root", f.mem.Location().Path())
	assert.Equal(t, 1, f.hist.Mutations())
}

func TestBridge_InstancesAreIndependent(t *testing.T) {
	a := connect(t, testutil.NewMemory(), testutil.NewStore())
	b := connect(t, testutil.NewMemory("/other"), testutil.NewStore())

	require.NoError(t, a.mem.Push(ir.NewLocation("/a", nil)))
	a.store.Dispatch(routing.LocationChanged(ir.NewLocation("/a2", nil)))

	assert.Equal(t, "/other", testutil.StorePath(b.store))
	assert.Equal(t, "/other", b.mem.Location().Path())
	assert.Zero(t, b.hist.Mutations())

	firstA, _ := a.bridge.FirstLocation()
	firstB, _ := b.bridge.FirstLocation()
	assert.Equal(t, "/", firstA.Path())
	assert.Equal(t, "/other", firstB.Path())
}
