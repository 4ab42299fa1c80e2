package value

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(kv ...any) Value {
	o := NewObject(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(Value))
	}
	return ObjectOf(o)
}

func TestObject_InsertionOrder(t *testing.T) {
	o := NewObject(0)
	o.Set("b", Number(1))
	o.Set("a", Number(2))
	o.Set("c", Number(3))
	require.Equal(t, []string{"b", "a", "c"}, o.Keys())

	var seen []string
	for k := range o.All() {
		seen = append(seen, k)
	}
	require.Equal(t, []string{"b", "a", "c"}, seen)
}

func TestObject_DuplicateKeyLastWriteWins(t *testing.T) {
	o := NewObject(0)
	o.Set("a", Number(1))
	o.Set("b", Number(2))
	o.Set("a", Number(3))

	require.Equal(t, 2, o.Len())
	require.Equal(t, []string{"a", "b"}, o.Keys(), "overwrite keeps the first position")
	v, ok := o.Get("a")
	require.True(t, ok)
	require.Equal(t, 3.0, v.Float())
}

func TestObject_IndexedLookup(t *testing.T) {
	o := NewObject(0)
	for i := 0; i < 50; i++ {
		o.Set(fmt.Sprintf("k%d", i), Number(float64(i)))
	}
	o.Set("k7", String("again"))

	require.Equal(t, 50, o.Len())
	for i := 0; i < 50; i++ {
		v, ok := o.Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
		if i == 7 {
			require.Equal(t, "again", v.Str())
			continue
		}
		require.Equal(t, float64(i), v.Float())
	}
	_, ok := o.Get("missing")
	require.False(t, ok)
	require.Equal(t, "k7", o.Keys()[7])
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"nulls", Null(), Value{}, true},
		{"bools", Bool(true), Bool(true), true},
		{"bool mismatch", Bool(true), Bool(false), false},
		{"numbers", Number(1.5), Number(1.5), true},
		{"signed zero", Number(0), Number(math.Copysign(0, -1)), true},
		{"number vs string", Number(1), String("1"), false},
		{"strings", String("x"), String("x"), true},
		{"empty arrays", Array(), Array(), true},
		{"array order matters", Array(Number(1), Number(2)), Array(Number(2), Number(1)), false},
		{"array length", Array(Null()), Array(Null(), Null()), false},
		{"object order ignored",
			obj("a", Number(1), "b", Array(Bool(true))),
			obj("b", Array(Bool(true)), "a", Number(1)), true},
		{"object value differs", obj("a", Number(1)), obj("a", Number(2)), false},
		{"object key differs", obj("a", Number(1)), obj("b", Number(1)), false},
		{"empty object vs array", ObjectOf(nil), Array(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a))
			if tt.equal {
				assert.Equal(t, tt.a.Hash(), tt.b.Hash())
			}
		})
	}
}

func TestValue_HashDistinguishes(t *testing.T) {
	values := []Value{
		Null(), Bool(false), Bool(true), Number(0), Number(1), String(""), String("0"),
		Array(), Array(Null()), ObjectOf(nil), obj("", Null()),
		Array(String("ab")), Array(String("a"), String("b")),
		obj("a", String("b")), obj("ab", String("")),
	}
	seen := make(map[uint64]int)
	for i, v := range values {
		h := v.Hash()
		j, dup := seen[h]
		require.False(t, dup, "values %d and %d share a fingerprint", i, j)
		seen[h] = i
	}
}

func TestValue_Interface(t *testing.T) {
	v := obj(
		"n", Number(2),
		"s", String("x"),
		"list", Array(Null(), Bool(true), obj()),
	)
	require.Equal(t, map[string]any{
		"n":    2.0,
		"s":    "x",
		"list": []any{nil, true, map[string]any{}},
	}, v.Interface())
	require.Equal(t, []any{}, Array().Interface())
	require.Nil(t, Null().Interface())
}

func TestValue_Accessors(t *testing.T) {
	v := obj("items", Array(Number(1), String("two")), "name", String("héllo"))

	require.Equal(t, KindObject, v.Kind())
	require.Equal(t, 2, v.Len())
	require.Equal(t, 5, v.Nodes())

	items, ok := v.Get("items")
	require.True(t, ok)
	second, ok := items.Index(1)
	require.True(t, ok)
	require.Equal(t, "two", second.Str())
	_, ok = items.Index(2)
	require.False(t, ok)
	_, ok = items.Get("x")
	require.False(t, ok)

	name, _ := v.Get("name")
	require.Equal(t, 6, name.Len())
	require.Equal(t, "string", name.Kind().String())
}
