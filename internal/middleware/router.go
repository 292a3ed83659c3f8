// Package middleware provides the store middleware that turns navigation
// intents into history calls.
//
// Router is the alternative to driving history from router state: the
// application dispatches routing.Push and friends as plain actions, the
// middleware calls history, and history's own notification brings the new
// location back into the store through the bridge. The intent itself never
// reaches the reducer. Use one style per store; combining Router with
// store-side LocationChanged intents for the same navigation applies it
// twice.
package middleware

import (
	"fmt"
	"log/slog"

	"github.com/roach88/routesync/internal/history"
	"github.com/roach88/routesync/internal/ir"
	"github.com/roach88/routesync/internal/metrics"
	"github.com/roach88/routesync/internal/routing"
	"github.com/roach88/routesync/internal/store"
)

type config struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures Router.
type Option func(*config)

// WithLogger sets the middleware logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics counts intercepted intents.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// Router returns middleware that swallows routing.UpdateLocation actions
// and performs the encoded call on nav. Every other action is passed to the
// next dispatcher unchanged.
//
// Malformed intents and history errors are logged, not returned: dispatch
// has no error channel.
func Router(nav history.Navigator, opts ...Option) store.Middleware {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(store.API) func(store.DispatchFunc) store.DispatchFunc {
		return func(next store.DispatchFunc) store.DispatchFunc {
			return func(action ir.Action) ir.Action {
				if action.Type != routing.UpdateLocation {
					return next(action)
				}

				call, ok := routing.CallOf(action)
				if !ok {
					cfg.logger.Warn("dropping navigation intent without history call", "payload", fmt.Sprintf("%T", action.Payload))
					cfg.metrics.Error("MALFORMED_INTENT")
					return action
				}

				cfg.metrics.Intercepted(string(call.Method))
				if err := apply(nav, call); err != nil {
					cfg.logger.Warn("navigation intent failed", "method", string(call.Method), "error", err)
					cfg.metrics.Error("NAVIGATION_FAILED")
				}
				return action
			}
		}
	}
}

// apply performs call on nav.
func apply(nav history.Navigator, call routing.HistoryCall) error {
	switch call.Method {
	case routing.MethodPush, routing.MethodReplace:
		loc, err := locationArg(call.Args)
		if err != nil {
			return fmt.Errorf("%s: %w", call.Method, err)
		}
		if call.Method == routing.MethodPush {
			return nav.Push(loc)
		}
		return nav.Replace(loc)

	case routing.MethodGo:
		if len(call.Args) != 1 {
			return fmt.Errorf("go: want 1 argument, got %d", len(call.Args))
		}
		n, ok := call.Args[0].(int)
		if !ok {
			return fmt.Errorf("go: want int argument, got %T", call.Args[0])
		}
		return nav.Go(n)

	case routing.MethodGoBack:
		return nav.GoBack()

	case routing.MethodGoForward:
		return nav.GoForward()
	}
	return fmt.Errorf("unknown history method %q", call.Method)
}

// locationArg accepts a Location or a path string.
func locationArg(args []any) (ir.Location, error) {
	if len(args) != 1 {
		return ir.Location{}, fmt.Errorf("want 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case ir.Location:
		return v, nil
	case *ir.Location:
		if v != nil {
			return *v, nil
		}
	case string:
		return ir.ParsePath(v), nil
	}
	return ir.Location{}, fmt.Errorf("want location or path argument, got %T", args[0])
}
