package routing

import (
	"github.com/roach88/routesync/internal/ir"
)

// UpdateLocation tags navigation intents: requests for history to move.
// It is distinct from LocationChange so reducers and other systems can
// ignore intents.
const UpdateLocation = "@@router/UPDATE_LOCATION"

// Method names a history method.
type Method string

const (
	MethodPush      Method = "push"
	MethodReplace   Method = "replace"
	MethodGo        Method = "go"
	MethodGoBack    Method = "goBack"
	MethodGoForward Method = "goForward"
)

// HistoryCall is the payload of an UpdateLocation action.
type HistoryCall struct {
	Method Method
	Args   []any
}

func intent(method Method, args ...any) ir.Action {
	if args == nil {
		args = []any{}
	}
	return ir.Action{
		Type:    UpdateLocation,
		Payload: HistoryCall{Method: method, Args: args},
	}
}

// Push asks history to push loc.
func Push(loc ir.Location) ir.Action { return intent(MethodPush, loc) }

// PushPath asks history to push path with state.
func PushPath(path string, state ir.Value) ir.Action {
	return Push(ir.NewLocation(path, state))
}

// Replace asks history to replace the current entry with loc.
func Replace(loc ir.Location) ir.Action { return intent(MethodReplace, loc) }

// ReplacePath asks history to replace the current entry with path and state.
func ReplacePath(path string, state ir.Value) ir.Action {
	return Replace(ir.NewLocation(path, state))
}

// Go asks history to move n entries. The range is history's concern.
func Go(n int) ir.Action { return intent(MethodGo, n) }

// GoBack asks history to move one entry back.
func GoBack() ir.Action { return intent(MethodGoBack) }

// GoForward asks history to move one entry forward.
func GoForward() ir.Action { return intent(MethodGoForward) }

// CallOf returns the history call carried by a navigation intent.
func CallOf(action ir.Action) (HistoryCall, bool) {
	if action.Type != UpdateLocation {
		return HistoryCall{}, false
	}
	switch p := action.Payload.(type) {
	case HistoryCall:
		return p, true
	case *HistoryCall:
		if p != nil {
			return *p, true
		}
	}
	return HistoryCall{}, false
}
