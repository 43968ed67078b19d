// Package state provides an immutable string-keyed map for use as store
// state, and the SetState action creator that merges patches into it.
package state

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Map is an immutable map. Every method that changes content returns a new
// Map and leaves the receiver as it was. The nil *Map is a valid empty map
// and stands for state that has not been set yet.
type Map struct {
	m map[string]any
}

// Empty returns a new map with no keys.
func Empty() *Map { return &Map{m: map[string]any{}} }

// From copies m into a new Map.
func From(m map[string]any) *Map {
	return &Map{m: maps.Clone(m)}
}

// Get returns the value at key and whether it is present.
func (s *Map) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.m[key]
	return v, ok
}

// Value returns the value at key, or nil.
func (s *Map) Value(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *Map) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *Map) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Keys returns the keys in sorted order.
func (s *Map) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.m))
}

// All iterates the entries in key order.
func (s *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range s.Keys() {
			if !yield(k, s.m[k]) {
				return
			}
		}
	}
}

// Set returns a copy of s with key set to v.
func (s *Map) Set(key string, v any) *Map {
	next := s.clone(1)
	next[key] = v
	return &Map{m: next}
}

// Delete returns a copy of s without key.
func (s *Map) Delete(key string) *Map {
	next := s.clone(0)
	delete(next, key)
	return &Map{m: next}
}

// Merge returns a copy of s with every entry of other written over it.
func (s *Map) Merge(other *Map) *Map {
	next := s.clone(other.Len())
	if other != nil {
		maps.Copy(next, other.m)
	}
	return &Map{m: next}
}

// ToMap returns a mutable copy of the entries.
func (s *Map) ToMap() map[string]any {
	return s.clone(0)
}

// Equal reports whether s and other hold the same keys with deeply equal
// values. A nil map equals an empty one.
func (s *Map) Equal(other *Map) bool {
	if s == other {
		return true
	}
	if s.Len() != other.Len() {
		return false
	}
	for k, v := range s.All() {
		ov, ok := other.Get(k)
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

func (s *Map) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.m)
}

func (s *Map) String() string {
	if s == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, s.m[k])
	}
	b.WriteByte('}')
	return b.String()
}

func (s *Map) clone(extra int) map[string]any {
	out := make(map[string]any, s.Len()+extra)
	if s != nil {
		maps.Copy(out, s.m)
	}
	return out
}
