package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Run("nil map reads as empty", func(t *testing.T) {
		var m *Map
		assert.Zero(t, m.Len())
		assert.False(t, m.Has("foo"))
		assert.Nil(t, m.Value("foo"))
		assert.Empty(t, m.Keys())
		assert.Empty(t, m.ToMap())
		assert.Equal(t, "<nil>", m.String())
	})

	t.Run("set returns a new map", func(t *testing.T) {
		a := Empty()
		b := a.Set("foo", "bar")

		assert.NotSame(t, a, b)
		assert.False(t, a.Has("foo"))
		assert.Equal(t, "bar", b.Value("foo"))
	})

	t.Run("delete returns a new map", func(t *testing.T) {
		a := From(map[string]any{"foo": 1, "bar": 2})
		b := a.Delete("foo")

		assert.True(t, a.Has("foo"))
		assert.False(t, b.Has("foo"))
		assert.Equal(t, 1, b.Len())
	})

	t.Run("from copies its input", func(t *testing.T) {
		src := map[string]any{"foo": 1}
		m := From(src)
		src["foo"] = 2

		assert.Equal(t, 1, m.Value("foo"))
	})

	t.Run("to map copies its output", func(t *testing.T) {
		m := From(map[string]any{"foo": 1})
		out := m.ToMap()
		out["foo"] = 2

		assert.Equal(t, 1, m.Value("foo"))
	})

	t.Run("merge overwrites", func(t *testing.T) {
		a := From(map[string]any{"foo": 1, "bar": 2})
		b := From(map[string]any{"bar": 3, "baz": 4})
		got := a.Merge(b)

		assert.Equal(t, map[string]any{"foo": 1, "bar": 3, "baz": 4}, got.ToMap())
		assert.Equal(t, 2, a.Value("bar"))
	})

	t.Run("keys and iteration are sorted", func(t *testing.T) {
		m := From(map[string]any{"c": 3, "a": 1, "b": 2})
		assert.Equal(t, []string{"a", "b", "c"}, m.Keys())

		var seen []string
		for k := range m.All() {
			seen = append(seen, k)
			if k == "b" {
				break
			}
		}
		assert.Equal(t, []string{"a", "b"}, seen)
	})

	t.Run("equal compares content", func(t *testing.T) {
		var nilMap *Map
		assert.True(t, nilMap.Equal(Empty()))
		assert.True(t, From(map[string]any{"x": []int{1}}).Equal(From(map[string]any{"x": []int{1}})))
		assert.False(t, From(map[string]any{"x": 1}).Equal(From(map[string]any{"x": 2})))
		assert.False(t, From(map[string]any{"x": 1}).Equal(From(map[string]any{"y": 1})))
	})

	t.Run("json and string forms", func(t *testing.T) {
		m := From(map[string]any{"foo": "bar", "n": 1})

		b, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"foo":"bar","n":1}`, string(b))
		assert.Equal(t, "{foo: bar, n: 1}", m.String())

		var nilMap *Map
		b, err = json.Marshal(nilMap)
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})
}

func TestSetState(t *testing.T) {
	t.Run("absent state counts as empty", func(t *testing.T) {
		got := SetState(Patch{"foo": "bar"})(nil)

		require.NotNil(t, got)
		assert.Equal(t, map[string]any{"foo": "bar"}, got.ToMap())
	})

	t.Run("shallow merge keeps other keys", func(t *testing.T) {
		cur := From(map[string]any{"foo": "FOO"})
		got := SetState(Patch{"bar": "BAR"})(cur)

		assert.Equal(t, map[string]any{"foo": "FOO", "bar": "BAR"}, got.ToMap())
	})

	t.Run("input is never modified", func(t *testing.T) {
		cur := From(map[string]any{"foo": "FOO"})
		_ = SetState(Patch{"foo": "changed", "bar": 1})(cur)

		assert.Equal(t, map[string]any{"foo": "FOO"}, cur.ToMap())
	})

	t.Run("empty patch still returns a new map", func(t *testing.T) {
		cur := Empty()
		got := SetState(nil)(cur)

		assert.NotSame(t, cur, got)
		assert.True(t, cur.Equal(got))
	})

	t.Run("nil values are stored", func(t *testing.T) {
		got := SetState(Patch{"foo": nil})(Empty())

		assert.True(t, got.Has("foo"))
		assert.Nil(t, got.Value("foo"))
	})

	t.Run("update values receive the current value", func(t *testing.T) {
		cur := From(map[string]any{"foo": "FOO"})
		got := SetState(Patch{
			"foo": Update(func(v any) any { return v.(string) + "2" }),
			"n":   func(v any) any { assert.Nil(t, v); return 1 },
		})(cur)

		assert.Equal(t, "FOO2", got.Value("foo"))
		assert.Equal(t, 1, got.Value("n"))
	})
}

func TestNested(t *testing.T) {
	cur := Empty().Set("user", From(map[string]any{"name": "ada", "age": 36}))

	got := SetState(Patch{
		"user": Nested(Patch{"age": Update(func(v any) any { return v.(int) + 1 })}),
		"meta": Nested(Patch{"created": true}),
	})(cur)

	user, ok := got.Value("user").(*Map)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "ada", "age": 37}, user.ToMap())

	meta, ok := got.Value("meta").(*Map)
	require.True(t, ok)
	assert.Equal(t, true, meta.Value("created"))

	old := cur.Value("user").(*Map)
	assert.Equal(t, 36, old.Value("age"))
}
