package attribute

import (
	"bytes"
	"fmt"
	"math"
	"slices"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindNull represents an attribute that is present but has no value.
	KindNull Kind = iota
	// KindInt32 represents a 32-bit integer.
	KindInt32
	// KindInt64 represents a 64-bit integer.
	KindInt64
	// KindFloat64 represents a double precision float.
	KindFloat64
	// KindString represents a string.
	KindString
	// KindBytes represents an opaque byte blob.
	KindBytes
	// KindInt32Array represents a slice of 32-bit integers.
	KindInt32Array
	// KindInt64Array represents a slice of 64-bit integers.
	KindInt64Array
	// KindFloat64Array represents a slice of doubles.
	KindFloat64Array
	// KindStringArray represents a slice of strings.
	KindStringArray
	// KindBytesArray represents a slice of byte blobs.
	KindBytesArray
	// KindNested represents a nested attribute Set.
	KindNested
)

var kindNames = [...]string{
	KindNull:         "null",
	KindInt32:        "int32",
	KindInt64:        "int64",
	KindFloat64:      "float64",
	KindString:       "string",
	KindBytes:        "bytes",
	KindInt32Array:   "int32[]",
	KindInt64Array:   "int64[]",
	KindFloat64Array: "float64[]",
	KindStringArray:  "string[]",
	KindBytesArray:   "bytes[]",
	KindNested:       "nested",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a typed attribute value.
//
// The zero Value is Null. Only the field matching Kind is meaningful; use the
// constructors and As* accessors rather than touching fields directly.
type Value struct {
	Kind Kind

	i64  int64
	f64  float64
	s    string
	b    []byte
	i32s []int32
	i64s []int64
	f64s []float64
	ss   []string
	bs   [][]byte
	set  *Set
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int32 returns an int32 Value.
func Int32(v int32) Value { return Value{Kind: KindInt32, i64: int64(v)} }

// Int64 returns an int64 Value.
func Int64(v int64) Value { return Value{Kind: KindInt64, i64: v} }

// Float64 returns a float64 Value.
func Float64(v float64) Value { return Value{Kind: KindFloat64, f64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, s: v} }

// Bytes returns a bytes Value. The slice is retained, not copied.
func Bytes(v []byte) Value { return Value{Kind: KindBytes, b: v} }

// Int32Array returns an int32 array Value.
func Int32Array(v []int32) Value { return Value{Kind: KindInt32Array, i32s: v} }

// Int64Array returns an int64 array Value.
func Int64Array(v []int64) Value { return Value{Kind: KindInt64Array, i64s: v} }

// Float64Array returns a float64 array Value.
func Float64Array(v []float64) Value { return Value{Kind: KindFloat64Array, f64s: v} }

// StringArray returns a string array Value.
func StringArray(v []string) Value { return Value{Kind: KindStringArray, ss: v} }

// BytesArray returns a bytes array Value.
func BytesArray(v [][]byte) Value { return Value{Kind: KindBytesArray, bs: v} }

// Nested returns a Value wrapping a nested Set. A nil set is treated as empty.
func Nested(v *Set) Value { return Value{Kind: KindNested, set: v} }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsInt32 returns the int32 value if Kind is KindInt32.
func (v Value) AsInt32() (int32, bool) {
	if v.Kind != KindInt32 {
		return 0, false
	}
	return int32(v.i64), true
}

// AsInt64 returns the int64 value if Kind is KindInt64.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt64 {
		return 0, false
	}
	return v.i64, true
}

// AsFloat64 returns the float64 value if Kind is KindFloat64.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat64 {
		return 0, false
	}
	return v.f64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBytes returns the byte blob if Kind is KindBytes.
func (v Value) AsBytes() ([]byte, bool) {
	if v.Kind != KindBytes {
		return nil, false
	}
	return v.b, true
}

// AsInt32Array returns the int32 slice if Kind is KindInt32Array.
func (v Value) AsInt32Array() ([]int32, bool) {
	if v.Kind != KindInt32Array {
		return nil, false
	}
	return v.i32s, true
}

// AsInt64Array returns the int64 slice if Kind is KindInt64Array.
func (v Value) AsInt64Array() ([]int64, bool) {
	if v.Kind != KindInt64Array {
		return nil, false
	}
	return v.i64s, true
}

// AsFloat64Array returns the float64 slice if Kind is KindFloat64Array.
func (v Value) AsFloat64Array() ([]float64, bool) {
	if v.Kind != KindFloat64Array {
		return nil, false
	}
	return v.f64s, true
}

// AsStringArray returns the string slice if Kind is KindStringArray.
func (v Value) AsStringArray() ([]string, bool) {
	if v.Kind != KindStringArray {
		return nil, false
	}
	return v.ss, true
}

// AsBytesArray returns the blob slice if Kind is KindBytesArray.
func (v Value) AsBytesArray() ([][]byte, bool) {
	if v.Kind != KindBytesArray {
		return nil, false
	}
	return v.bs, true
}

// AsNested returns the nested Set if Kind is KindNested.
// The returned set is never nil for a nested value.
func (v Value) AsNested() (*Set, bool) {
	if v.Kind != KindNested {
		return nil, false
	}
	if v.set == nil {
		return NewSet(), true
	}
	return v.set, true
}

// Len returns the element count of array and nested values, the byte length
// of Bytes values and 0 otherwise.
func (v Value) Len() int {
	switch v.Kind {
	case KindBytes:
		return len(v.b)
	case KindInt32Array:
		return len(v.i32s)
	case KindInt64Array:
		return len(v.i64s)
	case KindFloat64Array:
		return len(v.f64s)
	case KindStringArray:
		return len(v.ss)
	case KindBytesArray:
		return len(v.bs)
	case KindNested:
		return v.set.Len()
	default:
		return 0
	}
}

// Equal reports whether two values have the same kind and content.
//
// Nil and empty slices compare equal, as do a nil and an empty nested set.
// Floats are compared by bit pattern so NaN payloads survive a round trip.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt32, KindInt64:
		return v.i64 == o.i64
	case KindFloat64:
		return math.Float64bits(v.f64) == math.Float64bits(o.f64)
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	case KindInt32Array:
		return slices.Equal(v.i32s, o.i32s)
	case KindInt64Array:
		return slices.Equal(v.i64s, o.i64s)
	case KindFloat64Array:
		return slices.EqualFunc(v.f64s, o.f64s, func(a, b float64) bool {
			return math.Float64bits(a) == math.Float64bits(b)
		})
	case KindStringArray:
		return slices.Equal(v.ss, o.ss)
	case KindBytesArray:
		return slices.EqualFunc(v.bs, o.bs, bytes.Equal)
	case KindNested:
		return v.set.Equal(o.set)
	default:
		return false
	}
}

// clone creates a deep copy of a Value, including nested sets.
func (v Value) clone() Value {
	switch v.Kind {
	case KindBytes:
		v.b = bytes.Clone(v.b)
	case KindInt32Array:
		v.i32s = slices.Clone(v.i32s)
	case KindInt64Array:
		v.i64s = slices.Clone(v.i64s)
	case KindFloat64Array:
		v.f64s = slices.Clone(v.f64s)
	case KindStringArray:
		v.ss = slices.Clone(v.ss)
	case KindBytesArray:
		if v.bs != nil {
			bs := make([][]byte, len(v.bs))
			for i := range v.bs {
				bs[i] = bytes.Clone(v.bs[i])
			}
			v.bs = bs
		}
	case KindNested:
		v.set = v.set.Clone()
	}
	return v
}

// String renders the value for logs and debugging output.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt32, KindInt64:
		return fmt.Sprintf("%d", v.i64)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f64)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.b))
	case KindInt32Array:
		return fmt.Sprint(v.i32s)
	case KindInt64Array:
		return fmt.Sprint(v.i64s)
	case KindFloat64Array:
		return fmt.Sprint(v.f64s)
	case KindStringArray:
		return fmt.Sprintf("%q", v.ss)
	case KindBytesArray:
		return fmt.Sprintf("bytes[%d][]", len(v.bs))
	case KindNested:
		return v.set.String()
	default:
		return "invalid"
	}
}
