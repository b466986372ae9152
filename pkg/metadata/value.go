package metadata

import (
	"fmt"
	"strconv"
)

// Value is one scalar metadata field. The zero Value is an absent field and
// reads as the empty string.
type Value struct {
	v       interface{}
	present bool
}

// ValueOf wraps an already-normalized scalar.
func ValueOf(v interface{}) Value {
	return Value{v: v, present: true}
}

// Present reports whether the field existed in the record.
func (v Value) Present() bool {
	return v.present
}

// Interface returns the raw scalar, or "" when the field is absent.
func (v Value) Interface() interface{} {
	if !v.present {
		return ""
	}
	return v.v
}

// String renders the value for text sinks. Absent fields and None are "".
func (v Value) String() string {
	if !v.present || v.v == nil {
		return ""
	}
	switch x := v.v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// Int returns the value as an integer when it holds one.
func (v Value) Int() (int64, bool) {
	n, ok := v.v.(int64)
	return n, ok && v.present
}
