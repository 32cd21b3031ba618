package testutil

import (
	"errors"
	"io"
)

// Channel is an in-memory io.ReadWriteSeeker. Writes past the end grow it.
type Channel struct {
	data []byte
	pos  int64

	// MaxRead caps the bytes returned by a single Read when positive, to
	// exercise short reads.
	MaxRead int
}

// NewChannel returns a channel over a copy of data.
func NewChannel(data []byte) *Channel {
	return &Channel{data: append([]byte(nil), data...)}
}

// Bytes returns the channel contents.
func (c *Channel) Bytes() []byte {
	return c.data
}

// Len returns the size of the contents.
func (c *Channel) Len() int {
	return len(c.data)
}

// Truncate cuts the contents to n bytes.
func (c *Channel) Truncate(n int) {
	if n < len(c.data) {
		c.data = c.data[:n]
	}
}

func (c *Channel) Read(p []byte) (int, error) {
	if c.pos >= int64(len(c.data)) {
		return 0, io.EOF
	}
	if c.MaxRead > 0 && len(p) > c.MaxRead {
		p = p[:c.MaxRead]
	}
	n := copy(p, c.data[c.pos:])
	c.pos += int64(n)
	return n, nil
}

func (c *Channel) Write(p []byte) (int, error) {
	end := c.pos + int64(len(p))
	if end > int64(len(c.data)) {
		if end > int64(cap(c.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(c.data))))
			copy(grown, c.data)
			c.data = grown
		} else {
			c.data = c.data[:end]
		}
	}
	copy(c.data[c.pos:], p)
	c.pos = end
	return len(p), nil
}

func (c *Channel) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = c.pos + offset
	case io.SeekEnd:
		abs = int64(len(c.data)) + offset
	default:
		return 0, errors.New("testutil: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("testutil: negative position")
	}
	c.pos = abs
	return abs, nil
}
