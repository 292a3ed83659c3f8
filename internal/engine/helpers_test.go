package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/store"
	"github.com/roach88/routesync/internal/testutil"
)

type fixture struct {
	mem    *history.Memory
	hist   *testutil.RecordingHistory
	store  *store.Store
	bridge *Bridge
}

// connect wires mem and s through a recording spy. Mutations the test makes
// on mem directly stand for the user navigating; the spy sees only what the
// bridge does.
func connect(t *testing.T, mem *history.Memory, s *store.Store, opts ...Option) *fixture {
	t.Helper()
	hist := testutil.NewRecordingHistory(mem)
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	b, err := Connect(hist, s, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return &fixture{mem: mem, hist: hist, store: s, bridge: b}
}
