package routing

import (
	"github.com/roach88/routesync/internal/ir"
)

// LocationChange is dispatched whenever a location change has to be
// reflected in the store. It is part of the public wire contract.
const LocationChange = "@@router/LOCATION_CHANGE"

// DefaultKey is the top-level state key the bridge reads by default.
const DefaultKey = "routing"

// State is the router slice of store state.
type State struct {
	// Location is the last known location. Nil until the first change.
	Location *ir.Location

	// ChangeID counts intended navigations. Echoes of history changes do
	// not increment it.
	ChangeID int64
}

// LocationChangePayload is the payload of a LocationChange action.
type LocationChangePayload struct {
	Location ir.Location

	// NoRouterUpdate marks a change that came from history and must not
	// be replayed back into it.
	NoRouterUpdate bool
}

// ChangeOption configures a LocationChange action.
type ChangeOption func(*LocationChangePayload)

// WithoutRouterUpdate marks the change as already applied to history.
func WithoutRouterUpdate() ChangeOption {
	return func(p *LocationChangePayload) {
		p.NoRouterUpdate = true
	}
}

// LocationChanged builds a LocationChange action.
//
// Without options the action is an intent: Reduce increments ChangeID and a
// connected bridge drives history to loc (replace when loc.Action is
// REPLACE, push otherwise).
func LocationChanged(loc ir.Location, opts ...ChangeOption) ir.Action {
	payload := LocationChangePayload{Location: loc}
	for _, opt := range opts {
		opt(&payload)
	}
	return ir.Action{Type: LocationChange, Payload: payload}
}

// Reduce folds action into state.
//
// A nil state is treated as the zero State. Actions other than a well-formed
// LocationChange return state itself, so subscribers can skip work on
// pointer equality. A LocationChange returns a new *State; the input is never
// mutated.
func Reduce(state *State, action ir.Action) *State {
	if state == nil {
		state = &State{}
	}
	if action.Type != LocationChange {
		return state
	}

	payload, ok := changePayload(action)
	if !ok {
		return state
	}

	loc := payload.Location
	next := &State{
		Location: &loc,
		ChangeID: state.ChangeID,
	}
	if !payload.NoRouterUpdate {
		next.ChangeID++
	}
	return next
}

// Reducer adapts Reduce to the store's untyped reducer signature.
func Reducer(state any, action ir.Action) any {
	s, _ := state.(*State)
	return Reduce(s, action)
}

func changePayload(action ir.Action) (LocationChangePayload, bool) {
	switch p := action.Payload.(type) {
	case LocationChangePayload:
		return p, true
	case *LocationChangePayload:
		if p == nil {
			return LocationChangePayload{}, false
		}
		return *p, true
	default:
		return LocationChangePayload{}, false
	}
}
