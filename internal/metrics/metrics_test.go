package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg))

	c.HistoryEvent("PUSH", HistoryDispatched)
	c.HistoryEvent("PUSH", HistoryDispatched)
	c.HistoryEvent("", HistorySyncing)
	c.StoreEvent(StoreNavigated)
	c.Navigation("push")
	c.Intercepted("goBack")
	c.Error("NAVIGATION_FAILED")
	c.BridgeOpened()
	c.BridgeOpened()
	c.BridgeClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.historyEvents.WithLabelValues("PUSH", HistoryDispatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.historyEvents.WithLabelValues("NONE", HistorySyncing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storeEvents.WithLabelValues(StoreNavigated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.navigations.WithLabelValues("push")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.intercepted.WithLabelValues("goBack")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("NAVIGATION_FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeBridges))
}

func TestCollector_NamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("router"),
		WithConstLabels(prometheus.Labels{"instance": "test"}),
	)
	c.Navigation("replace")

	expected := `
# HELP app_router_navigations_total History mutations performed by bridges
# TYPE app_router_navigations_total counter
app_router_navigations_total{instance="test",method="replace"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "app_router_navigations_total"))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.HistoryEvent("POP", HistorySuppressed)
		c.StoreEvent(StoreUnchanged)
		c.Navigation("push")
		c.Intercepted("go")
		c.Error("SYNC_DEPTH_EXCEEDED")
		c.BridgeOpened()
		c.BridgeClosed()
	})
}
