package history

import (
	"github.com/roach88/routesync/internal/ir"
)

// Navigator is the mutating half of a history.
type Navigator interface {
	Push(loc ir.Location) error
	Replace(loc ir.Location) error
	Go(n int) error
	GoBack() error
	GoForward() error
}

// History is the collaborator a bridge is connected to.
//
// Listen registers a callback that receives every new location. Whether the
// callback also fires once on registration is up to the implementation;
// callers must tolerate both. The returned function unregisters the
// callback with immediate effect.
type History interface {
	Navigator
	Listen(listener func(ir.Location)) (unlisten func())
	CreatePath(loc ir.Location) string
}

// BeforeListener is implemented by histories that run hooks before a
// transition is applied. A hook returning an error blocks the transition.
type BeforeListener interface {
	ListenBefore(hook func(ir.Location) error) (unlisten func())
}

// Locator is implemented by histories that can report their current
// location without a notification.
type Locator interface {
	Location() ir.Location
}

// CreatePath renders loc as a path string. Missing parts are omitted, not
// normalized.
func CreatePath(loc ir.Location) string {
	return loc.Path()
}
