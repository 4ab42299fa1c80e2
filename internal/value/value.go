// Package value holds the decoded document tree.
package value

import (
	"encoding/binary"
	"iter"
	"math"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies which payload of a Value is set.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of a decoded document. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  *Object
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Number(f float64) Value     { return Value{kind: KindNumber, n: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: nonNil(elems)} }

// ObjectOf wraps o. A nil o is an empty object.
func ObjectOf(o *Object) Value {
	if o == nil {
		o = NewObject(0)
	}
	return Value{kind: KindObject, obj: o}
}

func nonNil(elems []Value) []Value {
	if elems == nil {
		return []Value{}
	}
	return elems
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Bool() bool     { return v.b }
func (v Value) Float() float64 { return v.n }
func (v Value) Str() string    { return v.s }

// Array returns the elements of an array value, nil for other kinds.
func (v Value) Array() []Value { return v.arr }

// Object returns the members of an object value, nil for other kinds.
func (v Value) Object() *Object { return v.obj }

// Len is the element count of an array, the member count of an object, the
// byte length of a string, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	case KindString:
		return len(v.s)
	}
	return 0
}

// Index returns element i of an array value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Get returns the member key of an object value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// Nodes counts the values in the tree rooted at v, v included.
func (v Value) Nodes() int {
	n := 1
	switch v.kind {
	case KindArray:
		for _, e := range v.arr {
			n += e.Nodes()
		}
	case KindObject:
		for _, e := range v.obj.vals {
			n += e.Nodes()
		}
	}
	return n
}

// Equal reports structural equality. Object member order is ignored.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		return slices.EqualFunc(v.arr, o.arr, Value.Equal)
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// Hash returns a 64-bit xxhash fingerprint of the tree. Values that are
// Equal have the same fingerprint.
func (v Value) Hash() uint64 {
	d := xxhash.New()
	v.hash(d)
	return d.Sum64()
}

func (v Value) hash(d *xxhash.Digest) {
	var buf [9]byte
	buf[0] = byte(v.kind)
	switch v.kind {
	case KindBool:
		if v.b {
			buf[1] = 1
		}
		d.Write(buf[:2])
	case KindNumber:
		n := v.n
		if n == 0 {
			n = 0 // fold -0
		}
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(n))
		d.Write(buf[:9])
	case KindString:
		binary.LittleEndian.PutUint64(buf[1:], uint64(len(v.s)))
		d.Write(buf[:9])
		d.WriteString(v.s)
	case KindArray:
		binary.LittleEndian.PutUint64(buf[1:], uint64(len(v.arr)))
		d.Write(buf[:9])
		for _, e := range v.arr {
			e.hash(d)
		}
	case KindObject:
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.obj.Len()))
		d.Write(buf[:9])
		keys := slices.Sorted(slices.Values(v.obj.keys))
		for _, k := range keys {
			String(k).hash(d)
			e, _ := v.obj.Get(k)
			e.hash(d)
		}
	default:
		d.Write(buf[:1])
	}
}

// Interface converts the tree to the generic Go representation used by
// encoding/json: nil, bool, float64, string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for k, e := range v.obj.All() {
			out[k] = e.Interface()
		}
		return out
	}
	return nil
}

// indexThreshold is the member count at which an Object starts keeping a
// key index; smaller objects are searched linearly.
const indexThreshold = 8

// Object is a JSON object that remembers member insertion order.
type Object struct {
	keys  []string
	vals  []Value
	index map[string]int
}

func NewObject(capacity int) *Object {
	return &Object{
		keys: make([]string, 0, capacity),
		vals: make([]Value, 0, capacity),
	}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) find(key string) int {
	if o.index != nil {
		if i, ok := o.index[key]; ok {
			return i
		}
		return -1
	}
	return slices.Index(o.keys, key)
}

// Set stores v under key. Setting an existing key replaces its value and
// keeps the key at its original position.
func (o *Object) Set(key string, v Value) {
	if i := o.find(key); i >= 0 {
		o.vals[i] = v
		return
	}
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
	switch {
	case o.index != nil:
		o.index[key] = len(o.keys) - 1
	case len(o.keys) > indexThreshold:
		o.index = make(map[string]int, len(o.keys)*2)
		for i, k := range o.keys {
			o.index[k] = i
		}
	}
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	if i := o.find(key); i >= 0 {
		return o.vals[i], true
	}
	return Value{}, false
}

// Keys returns the member names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// All iterates members in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i := 0; i < o.Len(); i++ {
			if !yield(o.keys[i], o.vals[i]) {
				return
			}
		}
	}
}

// Equal reports whether both objects hold equal members, in any order.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for k, v := range o.All() {
		w, ok := other.Get(k)
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
