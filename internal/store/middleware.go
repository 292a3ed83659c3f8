package store

import (
	"github.com/roach88/routesync/internal/ir"
)

// DispatchFunc dispatches an action.
type DispatchFunc func(ir.Action) ir.Action

// API is what a middleware sees of the store. Dispatch re-enters the full
// chain.
type API interface {
	GetState() any
	Dispatch(ir.Action) ir.Action
}

// Middleware wraps the dispatch chain. Returning without calling next
// swallows the action.
type Middleware func(api API) func(next DispatchFunc) DispatchFunc

// chain composes mw so that mw[0] is outermost.
func chain(api API, base DispatchFunc, mw []Middleware) DispatchFunc {
	dispatch := base
	for i := len(mw) - 1; i >= 0; i-- {
		dispatch = mw[i](api)(dispatch)
	}
	return dispatch
}
