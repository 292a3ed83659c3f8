// Package store provides an observable state container: a reducer-driven
// store with synchronous subscriptions, a middleware chain, wholesale state
// replacement and an action recorder for time travel.
//
// # Contract
//
//   - Dispatch runs the middleware chain, then the reducer, then every
//     subscriber, synchronously, and returns the action.
//   - Subscribers receive no payload; they re-read GetState.
//   - Unsubscribing takes effect immediately, including for a dispatch that
//     is already notifying.
//   - The store's mutex is held only around its own state, never while
//     subscribers or middleware run, so they may dispatch re-entrantly.
//     Reducers must not dispatch.
//
// # Time travel
//
// Recorder logs every action that reaches the reducer, stamped with a
// logical sequence number from Clock, and can recompute state from that log
// after Reset, Toggle or JumpTo. The recomputed state is installed with
// ReplaceState, which is what a debugging tool forcing state backward looks
// like to a subscriber.
package store
