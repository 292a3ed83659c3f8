package routing

// Selector extracts the router slice from the store's root state.
// It returns nil when the slice is absent.
type Selector func(state any) *State

// SelectKey reads the router slice from a map-shaped root state, as built by
// store.CombineReducers.
func SelectKey(key string) Selector {
	return func(state any) *State {
		root, ok := state.(map[string]any)
		if !ok {
			return nil
		}
		s, _ := root[key].(*State)
		return s
	}
}

// SelectRoot is used when Reducer is the store's only reducer and the root
// state is the router slice itself.
func SelectRoot(state any) *State {
	s, _ := state.(*State)
	return s
}

// DefaultSelector reads the slice installed under DefaultKey.
var DefaultSelector = SelectKey(DefaultKey)
