package ir

import (
	"fmt"
	"strings"
)

// NavAction is the kind of navigation that produced a location.
type NavAction string

const (
	// ActionPush added a new history entry.
	ActionPush NavAction = "PUSH"
	// ActionReplace overwrote the current history entry.
	ActionReplace NavAction = "REPLACE"
	// ActionPop moved within the stack (back, forward, go).
	ActionPop NavAction = "POP"
)

// Valid reports whether a is one of the three navigation actions.
func (a NavAction) Valid() bool {
	switch a {
	case ActionPush, ActionReplace, ActionPop:
		return true
	}
	return false
}

// ParseNavAction parses "PUSH", "REPLACE" or "POP" (case-insensitive).
func ParseNavAction(s string) (NavAction, error) {
	a := NavAction(strings.ToUpper(s))
	if !a.Valid() {
		return "", fmt.Errorf("invalid navigation action %q: must be PUSH, REPLACE or POP", s)
	}
	return a, nil
}

// Location is one point in navigation history.
type Location struct {
	Pathname string `json:"pathname"`
	Search   string `json:"search,omitempty"`
	Hash     string `json:"hash,omitempty"`

	// State is the caller's opaque payload. It is compared, never interpreted.
	State Value `json:"state,omitempty"`

	// Key identifies the history entry. Empty when the producer has no keys.
	Key string `json:"key,omitempty"`

	Action NavAction `json:"action,omitempty"`
}

// Path returns pathname + search + hash, concatenated without normalization.
func (l Location) Path() string {
	return l.Pathname + l.Search + l.Hash
}

// String implements fmt.Stringer.
func (l Location) String() string {
	if l.Action == "" {
		return l.Path()
	}
	return fmt.Sprintf("%s %s", l.Action, l.Path())
}

// WithAction returns a copy of l produced by action a.
func (l Location) WithAction(a NavAction) Location {
	l.Action = a
	return l
}

// WithKey returns a copy of l with the given entry key.
func (l Location) WithKey(key string) Location {
	l.Key = key
	return l
}

// WithState returns a copy of l carrying state.
func (l Location) WithState(state Value) Location {
	l.State = state
	return l
}

// ParsePath splits a path string into pathname, search and hash.
// The hash starts at the first '#', the search at the first '?' before it.
//
//	ParsePath("/a?b=1#c") // Pathname "/a", Search "?b=1", Hash "#c"
func ParsePath(path string) Location {
	var loc Location
	rest := path
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		loc.Hash = rest[i:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		loc.Search = rest[i:]
		rest = rest[:i]
	}
	loc.Pathname = rest
	return loc
}

// NewLocation parses path and attaches state.
func NewLocation(path string, state Value) Location {
	return ParsePath(path).WithState(state)
}
