// Package history defines the navigation history contract the bridge
// consumes and ships Memory, an in-memory implementation of it.
//
// Memory behaves like a browser session history: Push truncates forward
// entries, Replace overwrites the current entry, Go moves within the stack
// and reports a POP. Listeners run synchronously on the navigating
// goroutine after the transition is applied. Before-hooks registered with
// ListenBefore run first and may dispatch, veto the transition by returning
// an error, or navigate again, in which case the outer transition is
// dropped in favor of the nested one.
package history
