package store

import (
	"reflect"

	"github.com/roach88/routesync/internal/ir"
)

// CombineReducers builds a reducer over a map[string]any root state where
// each key is owned by one reducer.
//
// When no slice changes, the previous root map is returned as is, so
// subscribers can detect a no-op by identity. Slices are compared with ==
// when their dynamic values are comparable; anything else counts as changed.
func CombineReducers(reducers map[string]Reducer) Reducer {
	return func(state any, action ir.Action) any {
		prev, _ := state.(map[string]any)

		next := make(map[string]any, len(reducers))
		changed := prev == nil || len(prev) != len(reducers)
		for key, reducer := range reducers {
			before := prev[key]
			after := reducer(before, action)
			next[key] = after
			if !changed && !identical(before, after) {
				changed = true
			}
		}

		if !changed {
			return prev
		}
		return next
	}
}

func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
