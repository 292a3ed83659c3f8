// Package testutil provides deterministic fixtures for bridge tests: a
// history spy that records every mutation, memory histories with
// sequential keys, and stores with the routing reducer installed.
package testutil
