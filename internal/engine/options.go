package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/metrics"
	"github.com/roach88/routesync/internal/routing"
)

// SamePathPolicy decides when a history notification counts as already
// reflected in the store.
type SamePathPolicy int

const (
	// NotifyAlways treats a new history entry as a change even when its
	// path and state equal the store's, so re-navigating to the current
	// path still reaches subscribers. Entries match only when their keys
	// match, or when either side has no key.
	NotifyAlways SamePathPolicy = iota

	// SuppressSamePath treats equal path and state as the same location
	// regardless of key.
	SuppressSamePath
)

// String implements fmt.Stringer.
func (p SamePathPolicy) String() string {
	switch p {
	case NotifyAlways:
		return "notify-always"
	case SuppressSamePath:
		return "suppress-same-path"
	default:
		return fmt.Sprintf("SamePathPolicy(%d)", int(p))
	}
}

// ParseSamePathPolicy parses "notify-always" or "suppress-same-path".
// The empty string yields the default.
func ParseSamePathPolicy(s string) (SamePathPolicy, error) {
	switch s {
	case "", "notify-always":
		return NotifyAlways, nil
	case "suppress-same-path":
		return SuppressSamePath, nil
	}
	return 0, fmt.Errorf("unknown same-path policy %q: must be notify-always or suppress-same-path", s)
}

// Options configures a Bridge. Build it with Option functions; Connect
// validates it once.
type Options struct {
	// Selector finds the router state in the store's root state.
	// Default: routing.DefaultSelector (the "routing" key).
	Selector routing.Selector

	// AdjustURLOnReplay drives history when the router state is replaced
	// without a new intent (replay, reset, toggle). Default: true.
	AdjustURLOnReplay bool

	// SamePathPolicy decides history dedupe. Default: NotifyAlways.
	SamePathPolicy SamePathPolicy

	// Logger receives bridge logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics receives bridge counters. Default: nil (disabled).
	Metrics *metrics.Collector

	// MaxSyncDepth bounds nested bridge navigations.
	// Default: DefaultMaxSyncDepth.
	MaxSyncDepth int
}

// Option configures a Bridge.
type Option func(*Options)

// DefaultOptions returns the options Connect starts from.
func DefaultOptions() Options {
	return Options{
		Selector:          routing.DefaultSelector,
		AdjustURLOnReplay: true,
		SamePathPolicy:    NotifyAlways,
		MaxSyncDepth:      DefaultMaxSyncDepth,
	}
}

// WithSelector reads the router state with sel instead of the "routing" key.
func WithSelector(sel routing.Selector) Option {
	return func(o *Options) {
		o.Selector = sel
	}
}

// WithAdjustURLOnReplay sets whether replayed state drives history.
func WithAdjustURLOnReplay(adjust bool) Option {
	return func(o *Options) {
		o.AdjustURLOnReplay = adjust
	}
}

// WithSamePathPolicy sets the history dedupe policy.
func WithSamePathPolicy(p SamePathPolicy) Option {
	return func(o *Options) {
		o.SamePathPolicy = p
	}
}

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMetrics enables bridge counters.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Options) {
		o.Metrics = c
	}
}

// WithMaxSyncDepth bounds nested bridge navigations.
//
// Use WithMaxSyncDepth(1) to forbid any navigation from inside another.
func WithMaxSyncDepth(depth int) Option {
	return func(o *Options) {
		o.MaxSyncDepth = depth
	}
}

func (o Options) validate() error {
	if o.Selector == nil {
		return &ConfigError{Code: ErrCodeInvalidOption, Message: "selector must not be nil"}
	}
	if o.MaxSyncDepth < 1 {
		return &ConfigError{
			Code:    ErrCodeInvalidOption,
			Message: fmt.Sprintf("max sync depth must be at least 1, got %d", o.MaxSyncDepth),
		}
	}
	switch o.SamePathPolicy {
	case NotifyAlways, SuppressSamePath:
	default:
		return &ConfigError{Code: ErrCodeInvalidOption, Message: "unknown " + o.SamePathPolicy.String()}
	}
	return nil
}

// same reports whether a history location a is already reflected by the
// store location b. prev is the history location seen before a; a keyed
// entry matching neither b nor prev is a new entry.
func (p SamePathPolicy) same(a, b, prev *ir.Location) bool {
	if !ir.SameLocation(a, b) {
		return false
	}
	if p == SuppressSamePath || a == nil || a.Key == "" {
		return true
	}
	return a.Key == b.Key || (prev != nil && a.Key == prev.Key)
}
