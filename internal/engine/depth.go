package engine

import "fmt"

// DefaultMaxSyncDepth bounds nested bridge navigations.
const DefaultMaxSyncDepth = 32

// depthGuard counts bridge navigations currently on the stack.
//
// A navigation started while another is in flight (a before-hook that
// dispatches an intent, a subscriber that redirects) nests inside it. Each
// level is legitimate, but a hook that answers every navigation with
// another would recurse forever.
type depthGuard struct {
	max     int
	current int
}

func newDepthGuard(max int) *depthGuard {
	return &depthGuard{max: max}
}

// enter claims one level. On error the level is not claimed and exit must
// not be called.
func (g *depthGuard) enter(path string) error {
	if g.current >= g.max {
		return &RuntimeError{
			Code:    ErrCodeSyncDepthExceeded,
			Message: fmt.Sprintf("nested navigation depth %d exceeds limit %d", g.current+1, g.max),
			Path:    path,
		}
	}
	g.current++
	return nil
}

func (g *depthGuard) exit() {
	g.current--
}

// Current returns the number of navigations in flight.
func (g *depthGuard) Current() int {
	return g.current
}
