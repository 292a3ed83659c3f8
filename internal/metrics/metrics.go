// Package metrics exposes Prometheus counters for bridge and middleware
// traffic.
//
// A nil *Collector is valid and records nothing, so instrumented code never
// checks before calling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a history notification seen by a bridge.
const (
	HistoryDispatched = "dispatched" // forwarded into the store
	HistorySuppressed = "suppressed" // same location as the store
	HistorySyncing    = "syncing"    // caused by the bridge itself
	HistoryPersisted  = "persisted"  // store already held a location at connect
)

// Outcomes of a store notification seen by a bridge.
const (
	StoreNavigated     = "navigated"      // history was driven to the store location
	StoreUnchanged     = "unchanged"      // router state pointer did not change
	StoreInSync        = "in_sync"        // history already shows the location
	StoreReplaySkipped = "replay_skipped" // replay with URL adjustment disabled
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "routesync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry. Tests should pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "routesync",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the bridge metrics.
type Collector struct {
	historyEvents *prometheus.CounterVec
	storeEvents   *prometheus.CounterVec
	navigations   *prometheus.CounterVec
	intercepted   *prometheus.CounterVec
	errors        *prometheus.CounterVec
	activeBridges prometheus.Gauge
}

// New registers the bridge metrics and returns their collector.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		historyEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "history_events_total",
			Help:        "History notifications received by bridges",
			ConstLabels: config.ConstLabels,
		}, []string{"action", "outcome"}),

		storeEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "store_events_total",
			Help:        "Store notifications received by bridges",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "History mutations performed by bridges",
			ConstLabels: config.ConstLabels,
		}, []string{"method"}),

		intercepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "intercepted_intents_total",
			Help:        "Navigation intents turned into history calls by middleware",
			ConstLabels: config.ConstLabels,
		}, []string{"method"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Runtime errors by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		activeBridges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_bridges",
			Help:        "Bridges connected and not yet closed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// HistoryEvent counts a history notification.
func (c *Collector) HistoryEvent(action, outcome string) {
	if c == nil {
		return
	}
	if action == "" {
		action = "NONE"
	}
	c.historyEvents.WithLabelValues(action, outcome).Inc()
}

// StoreEvent counts a store notification.
func (c *Collector) StoreEvent(outcome string) {
	if c == nil {
		return
	}
	c.storeEvents.WithLabelValues(outcome).Inc()
}

// Navigation counts a history mutation made by a bridge.
func (c *Collector) Navigation(method string) {
	if c == nil {
		return
	}
	c.navigations.WithLabelValues(method).Inc()
}

// Intercepted counts a navigation intent handled by middleware.
func (c *Collector) Intercepted(method string) {
	if c == nil {
		return
	}
	c.intercepted.WithLabelValues(method).Inc()
}

// Error counts a runtime error.
func (c *Collector) Error(code string) {
	if c == nil {
		return
	}
	c.errors.WithLabelValues(code).Inc()
}

// BridgeOpened increments the active bridge gauge.
func (c *Collector) BridgeOpened() {
	if c == nil {
		return
	}
	c.activeBridges.Inc()
}

// BridgeClosed decrements the active bridge gauge.
func (c *Collector) BridgeClosed() {
	if c == nil {
		return
	}
	c.activeBridges.Dec()
}
