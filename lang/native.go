package lang

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// FromNative converts a Go value to a Value.
//
// Booleans, numbers and strings map to their scalar types. String-keyed maps
// (including ordered [yaml.MapSlice]) become maps, converted recursively.
// Slices become maps with members length, first, last, at(i) and a string
// form joining the elements with ", ". Functions of type [Func],
// func() any, and func(...any) any become callables. Any other
// [fmt.Stringer] becomes its string form.
func FromNative(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null, nil
	case Value:
		return v, nil
	case *Map:
		return MapValue(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Number(float64(v)), nil
	case int8:
		return Number(float64(v)), nil
	case int16:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint:
		return Number(float64(v)), nil
	case uint8:
		return Number(float64(v)), nil
	case uint16:
		return Number(float64(v)), nil
	case uint32:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case float32:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	case string:
		return String(v), nil
	case []byte:
		return String(string(v)), nil
	case Func:
		return NewFunction(v), nil
	case func(*VM, int) (Value, error):
		return NewFunction(v), nil
	case func() any:
		return NewFunction(nativeFunc(func(...any) any { return v() })), nil
	case func(...any) any:
		return NewFunction(nativeFunc(v)), nil
	case map[string]any:
		m := NewMap()
		for _, k := range slices.Sorted(maps.Keys(v)) {
			ev, err := FromNative(v[k])
			if err != nil {
				return Null, err
			}

			m.SetValue(k, ev)
		}

		return MapValue(m), nil
	case yaml.MapSlice:
		m := NewMap()
		for _, item := range v {
			ev, err := FromNative(item.Value)
			if err != nil {
				return Null, err
			}

			m.SetValue(fmt.Sprint(item.Key), ev)
		}

		return MapValue(m), nil
	case []any:
		return fromList(v)
	case fmt.Stringer:
		return String(v.String()), nil
	}

	return fromReflect(reflect.ValueOf(v))
}

// fromReflect handles maps and slices of concrete element types.
func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}

		return FromNative(rv.Elem().Interface())

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})

		m := NewMap()
		for _, k := range keys {
			ev, err := FromNative(rv.MapIndex(k).Interface())
			if err != nil {
				return Null, err
			}

			m.SetValue(k.String(), ev)
		}

		return MapValue(m), nil

	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}

		return fromList(list)
	}

	return Null, ErrConversion.With(slog.String("type", rv.Type().String()))
}

func fromList(list []any) (Value, error) {
	elems := make([]Value, len(list))

	for i, e := range list {
		v, err := FromNative(e)
		if err != nil {
			return Null, err
		}

		elems[i] = v
	}

	m := NewMap().SetNumber("length", float64(len(elems)))

	if len(elems) > 0 {
		m.SetValue("first", elems[0])
		m.SetValue("last", elems[len(elems)-1])
	}

	m.SetFunc("at", func(vm *VM, argc int) (Value, error) {
		if argc != 1 {
			return Null, vm.Errorf("at() requires 1 argument, got %d.", argc)
		}

		n, err := vm.PopNumber("Argument to at() needs to be a number.")
		if err != nil {
			return Null, err
		}

		i := int(n)
		if i < 0 {
			i += len(elems)
		}

		if i < 0 || i >= len(elems) {
			return Null, nil
		}

		return elems[i], nil
	})

	m.Set(ToStringKey, func() Value {
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}

		return String(strings.Join(parts, ", "))
	})

	return MapValue(m), nil
}

// nativeFunc adapts a variadic Go function to a callable.
func nativeFunc(fn func(...any) any) Func {
	return func(vm *VM, argc int) (Value, error) {
		args := make([]any, argc)
		for i := argc - 1; i >= 0; i-- {
			args[i] = ToNative(vm.Pop())
		}

		v, err := FromNative(fn(args...))
		if err != nil {
			return Null, vm.Errorf("Function returned an unsupported value: %v", err)
		}

		return v, nil
	}
}

// ToNative converts v to a Go value: nil, bool, int64 for integral numbers
// and float64 otherwise, string, map[string]any for maps, and the *Function
// for callables. Suppliers are evaluated; a map reached again through one of
// its own members converts to its string form.
func ToNative(v Value) any {
	return toNative(v, map[*Map]bool{})
}

func toNative(v Value, seen map[*Map]bool) any {
	switch v.Type() {
	case TypeBoolean:
		return v.AsBool()
	case TypeNumber:
		n := v.AsNumber()
		if n == math.Trunc(n) && math.Abs(n) <= math.MaxInt64/2 {
			return int64(n)
		}

		return n
	case TypeString:
		return v.AsString()
	case TypeFunction:
		return v.AsFunction()
	case TypeMap:
		m := v.AsMap()
		if seen[m] {
			return v.String()
		}

		seen[m] = true
		defer delete(seen, m)

		out := make(map[string]any, m.Len())
		for k := range m.Keys() {
			e, _ := m.Lookup(k)
			out[k] = toNative(e, seen)
		}

		return out
	default:
		return nil
	}
}

