package store

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/ir"
)

// counter is a reducer over an int that understands "inc" and "add".
func counter(state any, action ir.Action) any {
	n, _ := state.(int)
	switch action.Type {
	case "inc":
		return n + 1
	case "add":
		return n + action.Payload.(int)
	}
	return n
}

func TestNew_RunsInitAction(t *testing.T) {
	var seen []string
	s := New(func(state any, action ir.Action) any {
		seen = append(seen, action.Type)
		return counter(state, action)
	}, WithInitialState(5))

	assert.Equal(t, []string{InitAction}, seen)
	assert.Equal(t, 5, s.GetState())
}

func TestStore_DispatchReducesAndNotifies(t *testing.T) {
	s := New(counter)
	var calls int
	var observed []any
	s.Subscribe(func() {
		calls++
		observed = append(observed, s.GetState())
	})

	ret := s.Dispatch(ir.Action{Type: "inc"})
	s.Dispatch(ir.Action{Type: "add", Payload: 10})

	assert.Equal(t, "inc", ret.Type)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []any{1, 11}, observed)
}

func TestStore_UnsubscribeIsImmediate(t *testing.T) {
	s := New(counter)

	var second int
	var unsubSecond func()
	s.Subscribe(func() { unsubSecond() })
	unsubSecond = s.Subscribe(func() { second++ })

	s.Dispatch(ir.Action{Type: "inc"})
	assert.Zero(t, second)

	unsubSecond()
	s.Dispatch(ir.Action{Type: "inc"})
	assert.Zero(t, second)
}

func TestStore_SubscribeDuringDispatchWaitsForNext(t *testing.T) {
	s := New(counter)
	var late int
	once := false
	s.Subscribe(func() {
		if !once {
			once = true
			s.Subscribe(func() { late++ })
		}
	})

	s.Dispatch(ir.Action{Type: "inc"})
	assert.Zero(t, late)
	s.Dispatch(ir.Action{Type: "inc"})
	assert.Equal(t, 1, late)
}

func TestStore_ReentrantDispatchFromSubscriber(t *testing.T) {
	s := New(counter)
	var states []any
	s.Subscribe(func() {
		if s.GetState() == 1 {
			s.Dispatch(ir.Action{Type: "inc"})
		}
	})
	s.Subscribe(func() { states = append(states, s.GetState()) })

	s.Dispatch(ir.Action{Type: "inc"})

	assert.Equal(t, 2, s.GetState())
	assert.Equal(t, []any{2, 2}, states)
}

func TestStore_ReplaceState(t *testing.T) {
	s := New(counter)
	var calls int
	s.Subscribe(func() { calls++ })

	s.ReplaceState(42)

	assert.Equal(t, 42, s.GetState())
	assert.Equal(t, 1, calls)
}

func TestStore_Replaying(t *testing.T) {
	s := New(counter)
	var seen []bool
	redispatched := false
	s.Subscribe(func() {
		seen = append(seen, s.Replaying())
		if s.Replaying() && !redispatched {
			redispatched = true
			s.Dispatch(ir.Action{Type: "inc"})
			seen = append(seen, s.Replaying())
		}
	})

	s.Dispatch(ir.Action{Type: "inc"})
	s.ReplaceState(10)

	// live dispatch, replay, nested dispatch inside the replay, back in the replay
	assert.Equal(t, []bool{false, true, false, true}, seen)
	assert.False(t, s.Replaying())
	assert.Equal(t, 11, s.GetState())
}

func TestStore_SubscriberPanicLeavesStoreUsable(t *testing.T) {
	s := New(counter)
	unsub := s.Subscribe(func() { panic("boom") })

	assert.Panics(t, func() { s.Dispatch(ir.Action{Type: "inc"}) })
	assert.Equal(t, 1, s.GetState())

	unsub()
	s.Dispatch(ir.Action{Type: "inc"})
	assert.Equal(t, 2, s.GetState())
}

func TestMiddleware_Order(t *testing.T) {
	var trace []string
	tag := func(name string) Middleware {
		return func(api API) func(DispatchFunc) DispatchFunc {
			return func(next DispatchFunc) DispatchFunc {
				return func(action ir.Action) ir.Action {
					trace = append(trace, name+">"+action.Type)
					return next(action)
				}
			}
		}
	}

	s := New(counter, WithMiddleware(tag("a"), tag("b")))
	s.Dispatch(ir.Action{Type: "inc"})

	assert.Equal(t, []string{"a>inc", "b>inc"}, trace)
	assert.Equal(t, 1, s.GetState())
}

func TestMiddleware_SwallowAndRedispatch(t *testing.T) {
	// turns "double" into two "inc" dispatches through the full chain
	doubler := func(api API) func(DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(action ir.Action) ir.Action {
				if action.Type == "double" {
					api.Dispatch(ir.Action{Type: "inc"})
					api.Dispatch(ir.Action{Type: "inc"})
					return action
				}
				return next(action)
			}
		}
	}

	s := New(counter, WithMiddleware(doubler))
	var calls int
	s.Subscribe(func() { calls++ })

	ret := s.Dispatch(ir.Action{Type: "double"})
	assert.Equal(t, "double", ret.Type)
	assert.Equal(t, 2, s.GetState())
	assert.Equal(t, 2, calls)
}

func TestCombineReducers(t *testing.T) {
	type slice struct{ n int }
	sliceReducer := func(state any, action ir.Action) any {
		p, _ := state.(*slice)
		if p == nil {
			p = &slice{}
		}
		if action.Type == "bump" {
			return &slice{n: p.n + 1}
		}
		return p
	}

	root := CombineReducers(map[string]Reducer{
		"count": counter,
		"obj":   sliceReducer,
	})
	s := New(root)

	initial, ok := s.GetState().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0, initial["count"])
	require.IsType(t, &slice{}, initial["obj"])

	s.Dispatch(ir.Action{Type: "noop"})
	after, _ := s.GetState().(map[string]any)
	assert.Equal(t, 0, after["count"])
	// unchanged slices keep the root map
	assert.True(t, identical(initial["obj"], after["obj"]))
	assert.Equal(t, reflectPointer(initial), reflectPointer(after))

	s.Dispatch(ir.Action{Type: "bump"})
	bumped, _ := s.GetState().(map[string]any)
	assert.NotEqual(t, reflectPointer(initial), reflectPointer(bumped))
	assert.Equal(t, 1, bumped["obj"].(*slice).n)
}

func TestIdentical(t *testing.T) {
	p := &struct{}{}
	assert.True(t, identical(nil, nil))
	assert.False(t, identical(nil, 1))
	assert.True(t, identical(1, 1))
	assert.False(t, identical(1, int64(1)))
	assert.True(t, identical(p, p))
	assert.False(t, identical(map[string]any{}, map[string]any{}))
	assert.False(t, identical([]int{1}, []int{1}))
}

func reflectPointer(m map[string]any) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(10)
	assert.Equal(t, int64(11), resumed.Next())
}
