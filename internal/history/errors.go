package history

import "errors"

var (
	// ErrBlocked is returned when a before-hook vetoes a transition.
	ErrBlocked = errors.New("history: transition blocked")

	// ErrOutOfRange is returned by Go when the target index is outside the stack.
	ErrOutOfRange = errors.New("history: go out of range")
)
