package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/routing"
)

func TestRecordingHistory_RecordsAndDelegates(t *testing.T) {
	mem := NewMemory("/a", "/b")
	rec := NewRecordingHistory(mem)

	require.NoError(t, rec.Push(ir.NewLocation("/c", nil)))
	require.NoError(t, rec.Replace(ir.NewLocation("/d", nil)))
	require.NoError(t, rec.Go(-1))
	require.NoError(t, rec.GoForward())
	require.NoError(t, rec.GoBack())

	calls := rec.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, routing.MethodPush, calls[0].Method)
	assert.Equal(t, "/c", calls[0].Location.Path())
	assert.Equal(t, -1, calls[2].N)
	assert.Equal(t, 2, rec.Mutations())
	assert.Equal(t, 1, rec.Count(routing.MethodGoBack))
	assert.Equal(t, "/b", mem.Location().Path())

	// direct mutations bypass the spy
	require.NoError(t, mem.Push(ir.NewLocation("/x", nil)))
	assert.Len(t, rec.Calls(), 5)

	rec.Reset()
	assert.Empty(t, rec.Calls())
}

func TestRecordingHistory_ListenBefore(t *testing.T) {
	rec := NewRecordingHistory(NewMemory())
	var seen []string
	unhook := rec.ListenBefore(func(loc ir.Location) error {
		seen = append(seen, loc.Path())
		return nil
	})

	require.NoError(t, rec.Push(ir.NewLocation("/a", nil)))
	unhook()
	require.NoError(t, rec.Push(ir.NewLocation("/b", nil)))

	assert.Equal(t, []string{"/a"}, seen)
}

func TestNewStore_HasRouterState(t *testing.T) {
	s := NewStore()
	state := RouterState(s)
	require.NotNil(t, state)
	assert.Nil(t, state.Location)
	assert.Equal(t, "", StorePath(s))

	notifications := CountNotifications(s)
	s.Dispatch(routing.LocationChanged(ir.NewLocation("/x", nil)))
	assert.Equal(t, "/x", StorePath(s))
	assert.Equal(t, 1, notifications())
}

func TestRecordingHistory_Observe(t *testing.T) {
	mem := NewMemory()
	rec := NewRecordingHistory(mem)

	var observed []string
	rec.Observe(func(c Call) {
		// called before the history moves
		observed = append(observed, string(c.Method)+" "+mem.Location().Path())
	})

	require.NoError(t, rec.Push(ir.NewLocation("/a", nil)))
	require.NoError(t, rec.GoBack())

	assert.Equal(t, []string{"push /", "goBack /a"}, observed)
}
