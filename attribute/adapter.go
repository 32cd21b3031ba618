package attribute

import (
	"fmt"
	"math"
	"sort"
)

// FromAny converts a Go value into a typed Value.
//
// This exists as an adapter layer for feature stores that hand out loosely
// typed property maps (GeoJSON properties, SQL rows).
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case *Set:
		return Nested(x), nil
	case int32:
		return Int32(x), nil
	case int16:
		return Int32(int32(x)), nil
	case int8:
		return Int32(int32(x)), nil
	case uint8:
		return Int32(int32(x)), nil
	case uint16:
		return Int32(int32(x)), nil
	case int:
		return Int64(int64(x)), nil
	case int64:
		return Int64(x), nil
	case uint32:
		return Int64(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			// Avoid silently wrapping large values.
			return Value{}, fmt.Errorf("attribute uint64 out of range: %d", x)
		}
		return Int64(int64(x)), nil
	case float32:
		return Float64(float64(x)), nil
	case float64:
		return Float64(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case []int32:
		return Int32Array(x), nil
	case []int64:
		return Int64Array(x), nil
	case []int:
		arr := make([]int64, len(x))
		for i := range x {
			arr[i] = int64(x[i])
		}
		return Int64Array(arr), nil
	case []float64:
		return Float64Array(x), nil
	case []string:
		return StringArray(x), nil
	case [][]byte:
		return BytesArray(x), nil
	case map[string]any:
		set, err := FromMap(x)
		if err != nil {
			return Value{}, err
		}
		return Nested(set), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute value type %T", v)
	}
}

// FromMap converts a property map into a Set. Keys are inserted in sorted
// order since Go maps carry no order of their own.
func FromMap(m map[string]any) (*Set, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := NewSet()
	for _, k := range keys {
		v, err := FromAny(m[k])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		set.Put(k, v)
	}
	return set, nil
}

// ToAny converts a Value back into a plain Go value. Nested sets become
// map[string]any.
func ToAny(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt32:
		return int32(v.i64)
	case KindInt64:
		return v.i64
	case KindFloat64:
		return v.f64
	case KindString:
		return v.s
	case KindBytes:
		return v.b
	case KindInt32Array:
		return v.i32s
	case KindInt64Array:
		return v.i64s
	case KindFloat64Array:
		return v.f64s
	case KindStringArray:
		return v.ss
	case KindBytesArray:
		return v.bs
	case KindNested:
		return ToMap(v.set)
	default:
		return nil
	}
}

// ToMap converts a Set into a property map.
func ToMap(s *Set) map[string]any {
	m := make(map[string]any, s.Len())
	for k, v := range s.All() {
		m[k] = ToAny(v)
	}
	return m
}
