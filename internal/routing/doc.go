// Package routing owns the router slice of store state.
//
// It defines the two action vocabularies the bridge speaks:
//
//   - LocationChange ("@@router/LOCATION_CHANGE") reports a location that
//     history has already reached, or one the store wants history to reach.
//     Reduce folds it into State.
//   - UpdateLocation ("@@router/UPDATE_LOCATION") is a navigation intent built
//     by Push, Replace, Go, GoBack and GoForward. Reduce ignores it; the
//     interception middleware turns it into a history call.
//
// State.ChangeID counts intended navigations. A LocationChange dispatched
// with WithoutRouterUpdate (one that came from history) leaves it untouched,
// which is how the bridge tells intent from echo.
//
// Install the reducer under DefaultKey:
//
//	root := store.CombineReducers(map[string]store.Reducer{
//	    routing.DefaultKey: routing.Reducer,
//	})
package routing
