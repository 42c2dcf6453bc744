package lang

import (
	"math"
	"strconv"
)

// Type is the kind of a [Value].
type Type uint8

const (
	TypeNull Type = iota
	TypeBoolean
	TypeNumber
	TypeString
	TypeFunction
	TypeMap
)

var typeName = [...]string{
	TypeNull:     "Null",
	TypeBoolean:  "Boolean",
	TypeNumber:   "Number",
	TypeString:   "String",
	TypeFunction: "Function",
	TypeMap:      "Map",
}

func (t Type) String() string {
	if int(t) < len(typeName) {
		return typeName[t]
	}

	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// Func is a callable bound into a namespace. It must pop exactly argCount
// arguments from vm (the last argument is on top) and return one result.
// Errors should be produced with [VM.Errorf].
type Func func(vm *VM, argCount int) (Value, error)

// Function is the identity of a callable. Two function values are equal only
// when they share the same *Function.
type Function struct {
	call Func
}

// Call invokes the underlying callable.
func (f *Function) Call(vm *VM, argCount int) (Value, error) {
	return f.call(vm, argCount)
}

// Value is a run-time value. The zero Value is null.
type Value struct {
	typ Type
	b   bool
	n   float64
	s   string
	fn  *Function
	m   *Map
}

// Shared immutable values.
var (
	Null  = Value{}
	True  = Value{typ: TypeBoolean, b: true}
	False = Value{typ: TypeBoolean}
)

// Bool returns True or False.
func Bool(b bool) Value {
	if b {
		return True
	}

	return False
}

func Number(n float64) Value { return Value{typ: TypeNumber, n: n} }

func String(s string) Value { return Value{typ: TypeString, s: s} }

// NewFunction wraps fn in a new function identity. A nil fn yields null.
func NewFunction(fn Func) Value {
	if fn == nil {
		return Null
	}

	return Value{typ: TypeFunction, fn: &Function{call: fn}}
}

// MapValue wraps m. A nil map yields null.
func MapValue(m *Map) Value {
	if m == nil {
		return Null
	}

	return Value{typ: TypeMap, m: m}
}

func (v Value) Type() Type { return v.typ }

func (v Value) IsNull() bool     { return v.typ == TypeNull }
func (v Value) IsBool() bool     { return v.typ == TypeBoolean }
func (v Value) IsNumber() bool   { return v.typ == TypeNumber }
func (v Value) IsString() bool   { return v.typ == TypeString }
func (v Value) IsFunction() bool { return v.typ == TypeFunction }
func (v Value) IsMap() bool      { return v.typ == TypeMap }

// AsBool returns the boolean payload, or false for other types.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload, or 0 for other types.
func (v Value) AsNumber() float64 { return v.n }

// AsString returns the string payload, or "" for other types. Use
// [Value.String] for the display form of any value.
func (v Value) AsString() string { return v.s }

func (v Value) AsFunction() *Function { return v.fn }

func (v Value) AsMap() *Map { return v.m }

// Truthy reports whether v counts as true in a condition: null is false,
// booleans are themselves, everything else is true.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeNull:
		return false
	case TypeBoolean:
		return v.b
	default:
		return true
	}
}

// Equal compares null, booleans, numbers and strings structurally and
// functions and maps by identity.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}

	switch v.typ {
	case TypeNull:
		return true
	case TypeBoolean:
		return v.b == o.b
	case TypeNumber:
		return v.n == o.n
	case TypeString:
		return v.s == o.s
	case TypeFunction:
		return v.fn == o.fn
	case TypeMap:
		return v.m == o.m
	default:
		return false
	}
}

// ToStringKey is the reserved map key whose value, when present, replaces
// the default "<map>" rendering of a map. Names starting with an underscore
// are hidden from completion.
const ToStringKey = "_toString"

// String renders v as template output. Integral numbers omit the fractional
// part.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.b {
			return "true"
		}

		return "false"
	case TypeNumber:
		return formatNumber(v.n)
	case TypeString:
		return v.s
	case TypeFunction:
		return "<function>"
	case TypeMap:
		if s, ok := v.m.Get(ToStringKey); ok {
			return s().String()
		}

		return "<map>"
	default:
		return "<" + v.typ.String() + ">"
	}
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1<<63 {
		return strconv.FormatInt(int64(n), 10)
	}

	return strconv.FormatFloat(n, 'f', -1, 64)
}
