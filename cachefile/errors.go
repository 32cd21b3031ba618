package cachefile

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnexpectedEOF is returned when the channel ends before a field
	// could be read completely.
	ErrUnexpectedEOF = fmt.Errorf("cachefile: unexpected end of stream: %w", io.ErrUnexpectedEOF)

	// ErrUnsupportedAttributeType matches every UnsupportedAttributeTypeError.
	ErrUnsupportedAttributeType = errors.New("cachefile: unsupported attribute type")

	// ErrTooManyRecords is returned by WriteCache when the source produces
	// more than MaxRecords features or feature sets.
	ErrTooManyRecords = errors.New("cachefile: only 65535 records supported")

	// ErrStringTooLong is returned when a string exceeds MaxStringBytes.
	ErrStringTooLong = errors.New("cachefile: string too long")

	// ErrCorrupt is returned for structurally invalid records.
	ErrCorrupt = errors.New("cachefile: corrupt record")

	// ErrIndexOutOfRange is returned for a record position outside the table.
	ErrIndexOutOfRange = errors.New("cachefile: index out of range")

	// ErrNotFound is returned when an id is not present in an index table.
	ErrNotFound = errors.New("cachefile: not found")

	// ErrInvalidMagic is returned by OpenFile for files without the envelope magic.
	ErrInvalidMagic = errors.New("cachefile: invalid magic number")

	// ErrInvalidVersion is returned by OpenFile for unknown format versions.
	ErrInvalidVersion = errors.New("cachefile: unsupported format version")

	// ErrUnsupportedByteOrder is returned for byte orders other than big or
	// little endian.
	ErrUnsupportedByteOrder = errors.New("cachefile: unsupported byte order")
)

// UnsupportedAttributeTypeError reports an unknown attribute type tag.
type UnsupportedAttributeTypeError struct {
	Tag    uint8
	Key    string
	Offset int64
}

func (e *UnsupportedAttributeTypeError) Error() string {
	return fmt.Sprintf("cachefile: unsupported attribute type %d for key %q at offset %d", e.Tag, e.Key, e.Offset)
}

// Is reports whether target is ErrUnsupportedAttributeType.
func (e *UnsupportedAttributeTypeError) Is(target error) bool {
	return target == ErrUnsupportedAttributeType
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
