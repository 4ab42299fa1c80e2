package shardjson

import (
	"errors"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// UnmarshalTypeError describes a tree value that cannot be stored in a Go
// value of the target type.
type UnmarshalTypeError struct {
	Value string // kind of the tree value, or "number 1.5"
	Type  reflect.Type
	Field string // dotted path of the struct field, if any
}

func (e *UnmarshalTypeError) Error() string {
	if e.Field != "" {
		return "shardjson: cannot assign " + e.Value + " to field " + e.Field + " of type " + e.Type.String()
	}
	return "shardjson: cannot assign " + e.Value + " to Go value of type " + e.Type.String()
}

var (
	errNotPointer = errors.New("shardjson: Assign requires a non-nil pointer")
	valueType     = reflect.TypeFor[Value]()
)

// Assign stores tree in the value pointed to by v, following the same
// conventions as encoding/json: objects fill structs (by json tag, then by
// case-insensitive field name, with fields of untagged embedded structs
// promoted) and string-keyed maps, arrays fill slices and arrays, and a nil
// interface receives tree.Interface(). A Value target receives the tree
// unchanged.
func Assign(tree Value, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errNotPointer
	}
	return assign(tree, rv.Elem(), "")
}

func assign(src Value, dst reflect.Value, field string) error {
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(src))
		return nil
	}
	if src.IsNull() {
		switch dst.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			dst.Set(reflect.Zero(dst.Type()))
		}
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(src, dst.Elem(), field)
	}

	if dst.Kind() == reflect.Interface {
		if dst.Type().NumMethod() != 0 {
			return mismatch(src, dst, field)
		}
		dst.Set(reflect.ValueOf(src.Interface()))
		return nil
	}

	switch src.Kind() {
	case KindBool:
		if dst.Kind() != reflect.Bool {
			return mismatch(src, dst, field)
		}
		dst.SetBool(src.Bool())
	case KindNumber:
		return assignNumber(src, dst, field)
	case KindString:
		if dst.Kind() != reflect.String {
			return mismatch(src, dst, field)
		}
		dst.SetString(src.Str())
	case KindArray:
		return assignArray(src, dst, field)
	case KindObject:
		return assignObject(src, dst, field)
	}
	return nil
}

func assignNumber(src Value, dst reflect.Value, field string) error {
	f := src.Float()
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		if dst.OverflowFloat(f) {
			return mismatch(src, dst, field)
		}
		dst.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 || dst.OverflowInt(int64(f)) {
			return mismatch(src, dst, field)
		}
		dst.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 || dst.OverflowUint(uint64(f)) {
			return mismatch(src, dst, field)
		}
		dst.SetUint(uint64(f))
	default:
		return mismatch(src, dst, field)
	}
	return nil
}

func assignArray(src Value, dst reflect.Value, field string) error {
	elems := src.Array()
	switch dst.Kind() {
	case reflect.Slice:
		if dst.IsNil() || dst.Cap() < len(elems) {
			dst.Set(reflect.MakeSlice(dst.Type(), len(elems), len(elems)))
		} else {
			dst.SetLen(len(elems))
		}
	case reflect.Array:
		// extra source elements are dropped, missing ones zeroed
		for i := len(elems); i < dst.Len(); i++ {
			dst.Index(i).SetZero()
		}
		elems = elems[:min(len(elems), dst.Len())]
	default:
		return mismatch(src, dst, field)
	}
	for i, e := range elems {
		if err := assign(e, dst.Index(i), field); err != nil {
			return err
		}
	}
	return nil
}

func assignObject(src Value, dst reflect.Value, field string) error {
	switch dst.Kind() {
	case reflect.Map:
		if dst.Type().Key().Kind() != reflect.String {
			return mismatch(src, dst, field)
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		keyType, elemType := dst.Type().Key(), dst.Type().Elem()
		for k, v := range src.Object().All() {
			elem := reflect.New(elemType).Elem()
			if err := assign(v, elem, field); err != nil {
				return err
			}
			dst.SetMapIndex(reflect.ValueOf(k).Convert(keyType), elem)
		}
		return nil
	case reflect.Struct:
		fields := structFields(dst.Type())
		for k, v := range src.Object().All() {
			f, ok := fields.lookup(k)
			if !ok {
				continue
			}
			fv, ok := fieldByIndex(dst, f.index)
			if !ok {
				continue
			}
			path := f.name
			if field != "" {
				path = field + "." + path
			}
			if err := assign(v, fv, path); err != nil {
				return err
			}
		}
		return nil
	}
	return mismatch(src, dst, field)
}

type structField struct {
	name   string
	index  []int
	tagged bool
}

type fieldSet struct {
	fields []structField
	byName map[string]int
	byFold map[string]int
}

func (fs *fieldSet) lookup(key string) (*structField, bool) {
	i, ok := fs.byName[key]
	if !ok {
		i, ok = fs.byFold[strings.ToLower(key)]
	}
	if !ok {
		return nil, false
	}
	return &fs.fields[i], true
}

var fieldCache sync.Map // reflect.Type -> *fieldSet

// structFields indexes the exported fields of t by their JSON name,
// including fields promoted from embedded structs. A shallower field hides
// deeper ones of the same name; between fields at the same depth a single
// tagged one wins, otherwise the name is dropped.
func structFields(t reflect.Type) *fieldSet {
	if fs, ok := fieldCache.Load(t); ok {
		return fs.(*fieldSet)
	}
	fs := &fieldSet{
		fields: typeFields(t),
		byName: make(map[string]int),
		byFold: make(map[string]int),
	}
	for i, f := range fs.fields {
		fs.byName[f.name] = i
		if _, dup := fs.byFold[strings.ToLower(f.name)]; !dup {
			fs.byFold[strings.ToLower(f.name)] = i
		}
	}
	actual, _ := fieldCache.LoadOrStore(t, fs)
	return actual.(*fieldSet)
}

func typeFields(t reflect.Type) []structField {
	type embedded struct {
		typ   reflect.Type
		index []int
	}

	var out []structField
	hidden := make(map[string]bool)
	visited := make(map[reflect.Type]bool)
	next := []embedded{{typ: t}}

	for len(next) > 0 {
		current := next
		next = nil

		var level []structField
		for _, e := range current {
			if visited[e.typ] {
				continue
			}
			visited[e.typ] = true

			for i := 0; i < e.typ.NumField(); i++ {
				sf := e.typ.Field(i)
				ft := sf.Type
				if sf.Anonymous && ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if !sf.IsExported() && !(sf.Anonymous && ft.Kind() == reflect.Struct) {
					continue
				}
				tag := sf.Tag.Get("json")
				if tag == "-" {
					continue
				}
				name, _, _ := strings.Cut(tag, ",")
				index := append(slices.Clone(e.index), i)
				if sf.Anonymous && name == "" && ft.Kind() == reflect.Struct {
					next = append(next, embedded{typ: ft, index: index})
					continue
				}
				if !sf.IsExported() {
					continue
				}
				f := structField{name: name, index: index, tagged: name != ""}
				if f.name == "" {
					f.name = sf.Name
				}
				level = append(level, f)
			}
		}

		byName := make(map[string][]structField)
		var order []string
		for _, f := range level {
			if hidden[f.name] {
				continue
			}
			if _, seen := byName[f.name]; !seen {
				order = append(order, f.name)
			}
			byName[f.name] = append(byName[f.name], f)
		}
		for _, name := range order {
			if f, ok := dominantField(byName[name]); ok {
				out = append(out, f)
			}
			hidden[name] = true
		}
	}
	return out
}

func dominantField(fields []structField) (structField, bool) {
	if len(fields) == 1 {
		return fields[0], true
	}
	var winner structField
	tagged := 0
	for _, f := range fields {
		if f.tagged {
			winner = f
			tagged++
		}
	}
	return winner, tagged == 1
}

// fieldByIndex walks index from v, allocating nil embedded pointers. It
// reports false when a pointer must be allocated but cannot be set.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func mismatch(src Value, dst reflect.Value, field string) error {
	desc := src.Kind().String()
	if src.Kind() == KindNumber {
		desc = "number " + strconv.FormatFloat(src.Float(), 'g', -1, 64)
	}
	return &UnmarshalTypeError{Value: desc, Type: dst.Type(), Field: field}
}
