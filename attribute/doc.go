// Package attribute provides the typed, named values attached to features.
//
// A Set is an ordered mapping from string keys to Values. Insertion order is
// preserved because cache files store attributes in the order they were
// written, and readers reproduce that order.
//
// Values form a closed sum type identified by Kind:
//
//	Null, Int32, Int64, Float64, String, Bytes,
//	Int32Array, Int64Array, Float64Array, StringArray, BytesArray,
//	Nested (a Set inside a Set)
//
// Nesting depth is bounded only by the data.
package attribute
