package attribute

import (
	"iter"
	"slices"
	"strings"
)

// Set is an ordered mapping from attribute name to Value.
//
// Keys keep their first insertion position; overwriting a key replaces the
// value in place. A nil *Set behaves as an empty set for all read methods.
type Set struct {
	keys   []string
	values map[string]Value
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{values: make(map[string]Value)}
}

// Put sets key to v.
func (s *Set) Put(key string, v Value) {
	if s.values == nil {
		s.values = make(map[string]Value)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Get returns the value stored under key.
func (s *Set) Get(key string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key from the set.
func (s *Set) Delete(key string) {
	if s == nil {
		return
	}
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	if i := slices.Index(s.keys, key); i >= 0 {
		s.keys = slices.Delete(s.keys, i, i+1)
	}
}

// Len returns the number of attributes.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the attribute names in insertion order.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.keys)
}

// All iterates over the attributes in insertion order.
func (s *Set) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if s == nil {
			return
		}
		for _, k := range s.keys {
			if !yield(k, s.values[k]) {
				return
			}
		}
	}
}

// Equal reports whether both sets hold the same keys, in the same order,
// with equal values.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, k := range s.Keys() {
		if o.keys[i] != k {
			return false
		}
		if !s.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the set.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	c := &Set{
		keys:   slices.Clone(s.keys),
		values: make(map[string]Value, len(s.values)),
	}
	for k, v := range s.values {
		c.values[k] = v.clone()
	}
	return c
}

func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	i := 0
	for k, v := range s.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(v.String())
		i++
	}
	sb.WriteByte('}')
	return sb.String()
}
