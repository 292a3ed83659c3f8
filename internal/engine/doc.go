// Package engine implements the bridge that keeps a navigation history and
// a store in sync.
//
// Connect wires the two together:
//
//	history.Push -> listener -> store.Dispatch(LOCATION_CHANGE, no router update)
//	store.Dispatch(LOCATION_CHANGE) -> subscriber -> history.Push/Replace
//
// # Telling intent from echo
//
// Every LOCATION_CHANGE the bridge dispatches on behalf of history carries
// routing.WithoutRouterUpdate, so the reducer leaves ChangeID alone. When
// the store notifies, the bridge compares the router state against the
// last one it saw:
//
//   - same pointer: nothing happened to routing;
//   - ChangeID grew: someone asked for a navigation, drive history there;
//   - anything else: the state was replaced (replay, reset, toggle). History
//     follows only when AdjustURLOnReplay is set, which is the default.
//
// A reset router state has no location; the bridge then restores the first
// location history ever reported.
//
// # Re-entrancy
//
// All callbacks run synchronously. While the bridge is calling history it
// holds a syncing flag, saved and restored with defer, so the resulting
// history notification is recorded but not dispatched, and a panic in a
// listener cannot leave the flag set. Nested navigations started from
// before-hooks or subscribers run inside the outer one; their depth is
// bounded by MaxSyncDepth.
//
// A Bridge must be driven from a single goroutine.
package engine
