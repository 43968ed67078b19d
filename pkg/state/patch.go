package state

import "github.com/wilhg/statebox/pkg/store"

// Patch is a set of entries to merge into a Map. A value of type Update (or
// a plain func(any) any) is not stored; it is called with the current value
// at its key and its result is stored instead.
type Patch map[string]any

// Update computes the new value at a key from the current one. The current
// value is nil when the key is absent.
type Update func(current any) any

// SetState returns an action that shallow-merges patch into the current
// state. Absent state counts as empty. The current Map is never modified; the
// result is always a new Map.
func SetState(patch Patch) store.Immediate[*Map] {
	return func(current *Map) *Map {
		return apply(current, patch)
	}
}

// Nested returns an Update that applies patch to the Map stored at a key, so
// that patches can address nested state. A missing or non-Map value is
// treated as empty.
func Nested(patch Patch) Update {
	return func(current any) any {
		m, _ := current.(*Map)
		return apply(m, patch)
	}
}

func apply(current *Map, patch Patch) *Map {
	next := current.clone(len(patch))
	for k, v := range patch {
		switch u := v.(type) {
		case Update:
			next[k] = u(current.Value(k))
		case func(any) any:
			next[k] = u(current.Value(k))
		default:
			next[k] = v
		}
	}
	return &Map{m: next}
}
