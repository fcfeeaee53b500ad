package lang

import (
	"log/slog"
	"math"
	"strconv"
)

// Type is the runtime tag of a [Value].
type Type uint8

const (
	// TypeUnbound is the absent value of a name that was referenced before
	// anything was bound to it.
	TypeUnbound Type = iota

	// TypeNumber is a float64 number.
	TypeNumber

	// TypeString is a decoded string.
	TypeString

	// TypeBool is a boolean.
	TypeBool

	// TypeCallable is a function or builtin.
	TypeCallable
)

// String returns a string representation of the value type.
func (t Type) String() string {
	switch t {
	case TypeUnbound:
		return "unbound"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeCallable:
		return "callable"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is a tagged runtime value. The zero Value is unbound.
type Value struct {
	typ Type
	num float64
	str string
	fn  Callable
}

// Unbound returns the absent value.
func Unbound() Value { return Value{} }

// NumberValue returns a number value.
func NumberValue(f float64) Value { return Value{typ: TypeNumber, num: f} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{typ: TypeString, str: s} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value {
	v := Value{typ: TypeBool}
	if b {
		v.num = 1
	}

	return v
}

// CallableValue returns a value wrapping fn. A nil fn yields Unbound.
func CallableValue(fn Callable) Value {
	if fn == nil {
		return Value{}
	}

	return Value{typ: TypeCallable, fn: fn}
}

// Type returns the tag of v.
func (v Value) Type() Type { return v.typ }

// IsUnbound reports whether v is the absent value.
func (v Value) IsUnbound() bool { return v.typ == TypeUnbound }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.num, v.typ == TypeNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.typ == TypeString }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.num != 0, v.typ == TypeBool }

// AsCallable returns the callable held by v.
func (v Value) AsCallable() (Callable, bool) { return v.fn, v.typ == TypeCallable }

// numeric returns v as a number when it is a number or a bool.
func (v Value) numeric() (float64, bool) {
	return v.num, v.typ == TypeNumber || v.typ == TypeBool
}

// Truthy reports the boolean interpretation of v: unbound, zero, the empty
// string and false are false.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeNumber, TypeBool:
		return v.num != 0
	case TypeString:
		return v.str != ""
	case TypeCallable:
		return true
	default:
		return false
	}
}

// Equal reports whether v and o compare equal. Numbers and bools compare
// numerically, callables by identity.
func (v Value) Equal(o Value) bool {
	if a, ok := v.numeric(); ok {
		b, ok := o.numeric()

		return ok && a == b
	}

	if v.typ != o.typ {
		return false
	}

	switch v.typ {
	case TypeString:
		return v.str == o.str
	case TypeCallable:
		return v.fn == o.fn
	default:
		return true
	}
}

// String formats v the way the print builtin shows it. Integral numbers have
// no fractional part.
func (v Value) String() string {
	switch v.typ {
	case TypeNumber:
		return FormatNumber(v.num)
	case TypeString:
		return v.str
	case TypeBool:
		return strconv.FormatBool(v.num != 0)
	case TypeCallable:
		return v.fn.String()
	default:
		return "none"
	}
}

// LogValue implements slog.LogValuer.
func (v Value) LogValue() slog.Value {
	switch v.typ {
	case TypeNumber:
		return slog.Float64Value(v.num)
	case TypeString:
		return slog.StringValue(v.str)
	case TypeBool:
		return slog.BoolValue(v.num != 0)
	default:
		return slog.StringValue(v.String())
	}
}

// FormatNumber formats f without exponent or trailing zeros.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}
