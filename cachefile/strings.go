package cachefile

import (
	"unicode/utf16"
)

// readString decodes a length-prefixed UTF-16 string. A zero byte length
// decodes as absent, so an empty string does not survive a round trip.
func readString(s *readStream) (*string, error) {
	if err := s.ensureReadable(2); err != nil {
		return nil, err
	}
	off := s.position()
	n := int(s.uint16())
	if n == 0 {
		return nil, nil
	}
	if n%2 != 0 {
		return nil, corruptf("odd string byte length %d at offset %d", n, off)
	}
	if err := s.ensureReadable(n); err != nil {
		return nil, err
	}
	b := s.take(n)
	units := make([]uint16, n/2)
	for i := range units {
		units[i] = s.order.Uint16(b[2*i:])
	}
	str := string(utf16.Decode(units))
	return &str, nil
}

// readStringValue is readString with absent mapped to "".
func readStringValue(s *readStream) (string, error) {
	str, err := readString(s)
	if err != nil || str == nil {
		return "", err
	}
	return *str, nil
}

// writeString encodes str as a length-prefixed UTF-16 string; nil and ""
// both encode as byte length 0.
func writeString(s *writeStream, str *string) error {
	if str == nil || *str == "" {
		if err := s.ensureWritable(2); err != nil {
			return err
		}
		s.putUint16(0)
		return nil
	}
	units := utf16.Encode([]rune(*str))
	n := 2 * len(units)
	if n > MaxStringBytes {
		return ErrStringTooLong
	}
	if err := s.ensureWritable(2 + n); err != nil {
		return err
	}
	s.putUint16(uint16(n))
	b := s.grow(n)
	for i, u := range units {
		s.order.PutUint16(b[2*i:], u)
	}
	return nil
}

func writeStringValue(s *writeStream, str string) error {
	return writeString(s, &str)
}
