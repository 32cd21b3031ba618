package cachefile

import (
	"github.com/hupe1980/geocache/attribute"
)

// maxPrealloc bounds slice preallocation for counts read from the file.
const maxPrealloc = 1024

func kindTag(k attribute.Kind) (uint8, bool) {
	switch k {
	case attribute.KindNull:
		return tagNull, true
	case attribute.KindInt32:
		return tagInt32, true
	case attribute.KindInt64:
		return tagInt64, true
	case attribute.KindFloat64:
		return tagFloat64, true
	case attribute.KindString:
		return tagString, true
	case attribute.KindBytes:
		return tagBytes, true
	case attribute.KindInt32Array:
		return tagInt32Array, true
	case attribute.KindInt64Array:
		return tagInt64Array, true
	case attribute.KindFloat64Array:
		return tagFloat64Array, true
	case attribute.KindStringArray:
		return tagStringArray, true
	case attribute.KindBytesArray:
		return tagBytesArray, true
	case attribute.KindNested:
		return tagNested, true
	}
	return 0, false
}

// writeAttributes writes the attribute count followed by each attribute.
// A nil or empty set is written as count 0.
func writeAttributes(s *writeStream, set *attribute.Set) error {
	if err := s.putCount(set.Len()); err != nil {
		return err
	}
	for key, v := range set.All() {
		if err := writeAttribute(s, key, v); err != nil {
			return err
		}
	}
	return nil
}

// readAttributes reads an attribute count and that many attributes.
// Count 0 yields a nil set.
func readAttributes(s *readStream) (*attribute.Set, error) {
	n, err := s.count()
	if err != nil || n == 0 {
		return nil, err
	}
	set := attribute.NewSet()
	if err := readAttributesInto(s, set, n); err != nil {
		return nil, err
	}
	return set, nil
}

func readAttributesInto(s *readStream, set *attribute.Set, n int) error {
	for range n {
		key, v, err := readAttribute(s)
		if err != nil {
			return err
		}
		set.Put(key, v)
	}
	return nil
}

func writeAttribute(s *writeStream, key string, v attribute.Value) error {
	if err := writeStringValue(s, key); err != nil {
		return err
	}
	tag, ok := kindTag(v.Kind)
	if !ok {
		tag = tagNull
	}
	if err := s.ensureWritable(1); err != nil {
		return err
	}
	s.putUint8(tag)

	switch tag {
	case tagInt32:
		x, _ := v.AsInt32()
		if err := s.ensureWritable(4); err != nil {
			return err
		}
		s.putInt32(x)
	case tagInt64:
		x, _ := v.AsInt64()
		if err := s.ensureWritable(8); err != nil {
			return err
		}
		s.putInt64(x)
	case tagFloat64:
		x, _ := v.AsFloat64()
		if err := s.ensureWritable(8); err != nil {
			return err
		}
		s.putFloat64(x)
	case tagString:
		x, _ := v.AsString()
		return writeStringValue(s, x)
	case tagBytes:
		x, _ := v.AsBytes()
		return writeBlob(s, x)
	case tagInt32Array:
		xs, _ := v.AsInt32Array()
		if err := s.putCount(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := s.ensureWritable(4); err != nil {
				return err
			}
			s.putInt32(x)
		}
	case tagInt64Array:
		xs, _ := v.AsInt64Array()
		if err := s.putCount(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := s.ensureWritable(8); err != nil {
				return err
			}
			s.putInt64(x)
		}
	case tagFloat64Array:
		xs, _ := v.AsFloat64Array()
		if err := s.putCount(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := s.ensureWritable(8); err != nil {
				return err
			}
			s.putFloat64(x)
		}
	case tagStringArray:
		xs, _ := v.AsStringArray()
		if err := s.putCount(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := writeStringValue(s, x); err != nil {
				return err
			}
		}
	case tagBytesArray:
		xs, _ := v.AsBytesArray()
		if err := s.putCount(len(xs)); err != nil {
			return err
		}
		for _, x := range xs {
			if err := writeBlob(s, x); err != nil {
				return err
			}
		}
	case tagNested:
		nested, _ := v.AsNested()
		return writeAttributes(s, nested)
	}
	return nil
}

func writeBlob(s *writeStream, b []byte) error {
	if err := s.putCount(len(b)); err != nil {
		return err
	}
	if err := s.ensureWritable(len(b)); err != nil {
		return err
	}
	s.putBytes(b)
	return nil
}

func readAttribute(s *readStream) (string, attribute.Value, error) {
	key, err := readStringValue(s)
	if err != nil {
		return "", attribute.Value{}, err
	}
	if err := s.ensureReadable(1); err != nil {
		return "", attribute.Value{}, err
	}
	off := s.position()
	tag := s.uint8()

	var v attribute.Value
	switch tag {
	case tagNull:
		v = attribute.Null()
	case tagInt32:
		if err = s.ensureReadable(4); err == nil {
			v = attribute.Int32(s.int32())
		}
	case tagInt64:
		if err = s.ensureReadable(8); err == nil {
			v = attribute.Int64(s.int64())
		}
	case tagFloat64:
		if err = s.ensureReadable(8); err == nil {
			v = attribute.Float64(s.float64())
		}
	case tagString:
		var str string
		if str, err = readStringValue(s); err == nil {
			v = attribute.String(str)
		}
	case tagBytes:
		var b []byte
		if b, err = readBlob(s); err == nil {
			v = attribute.Bytes(b)
		}
	case tagInt32Array:
		var xs []int32
		if xs, err = readArray(s, 4, (*readStream).int32); err == nil {
			v = attribute.Int32Array(xs)
		}
	case tagInt64Array:
		var xs []int64
		if xs, err = readArray(s, 8, (*readStream).int64); err == nil {
			v = attribute.Int64Array(xs)
		}
	case tagFloat64Array:
		var xs []float64
		if xs, err = readArray(s, 8, (*readStream).float64); err == nil {
			v = attribute.Float64Array(xs)
		}
	case tagStringArray:
		var xs []string
		if xs, err = readStringArray(s); err == nil {
			v = attribute.StringArray(xs)
		}
	case tagBytesArray:
		var xs [][]byte
		if xs, err = readBytesArray(s); err == nil {
			v = attribute.BytesArray(xs)
		}
	case tagNested:
		var n int
		if n, err = s.count(); err == nil {
			nested := attribute.NewSet()
			if err = readAttributesInto(s, nested, n); err == nil {
				v = attribute.Nested(nested)
			}
		}
	default:
		return "", attribute.Value{}, &UnsupportedAttributeTypeError{Tag: tag, Key: key, Offset: off}
	}
	if err != nil {
		return "", attribute.Value{}, err
	}
	return key, v, nil
}

func readBlob(s *readStream) ([]byte, error) {
	n, err := s.count()
	if err != nil {
		return nil, err
	}
	return s.blob(n)
}

func readArray[T any](s *readStream, width int, get func(*readStream) T) ([]T, error) {
	n, err := s.count()
	if err != nil {
		return nil, err
	}
	xs := make([]T, 0, min(n, maxPrealloc))
	for range n {
		if err := s.ensureReadable(width); err != nil {
			return nil, err
		}
		xs = append(xs, get(s))
	}
	return xs, nil
}

func readStringArray(s *readStream) ([]string, error) {
	n, err := s.count()
	if err != nil {
		return nil, err
	}
	xs := make([]string, 0, min(n, maxPrealloc))
	for range n {
		str, err := readStringValue(s)
		if err != nil {
			return nil, err
		}
		xs = append(xs, str)
	}
	return xs, nil
}

func readBytesArray(s *readStream) ([][]byte, error) {
	n, err := s.count()
	if err != nil {
		return nil, err
	}
	xs := make([][]byte, 0, min(n, maxPrealloc))
	for range n {
		b, err := readBlob(s)
		if err != nil {
			return nil, err
		}
		xs = append(xs, b)
	}
	return xs, nil
}
