package ir

import "fmt"

// Action is a message dispatched into a store.
//
// Type is a stable string so that code outside this module can recognize
// routing actions (e.g. "@@router/LOCATION_CHANGE"). Payload is owned by
// whoever defines Type.
type Action struct {
	Type    string
	Payload any
}

// Is reports whether the action has the given type.
func (a Action) Is(actionType string) bool {
	return a.Type == actionType
}

// String implements fmt.Stringer.
func (a Action) String() string {
	if a.Payload == nil {
		return a.Type
	}
	return fmt.Sprintf("%s %v", a.Type, a.Payload)
}
