package cachefile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Stats counts channel operations performed through a Context or a write.
type Stats struct {
	Reads  int
	Seeks  int
	Writes int
	// IndexCompares counts index entries compared by id lookups.
	IndexCompares int
}

// readStream is a read-side buffer over a seekable channel.
//
// buf[r:w] holds the bytes read from the channel but not yet consumed, so the
// logical position is chPos-(w-r).
type readStream struct {
	ch    io.ReadSeeker
	order binary.ByteOrder
	buf   []byte
	r, w  int
	chPos int64
	size  int64
	gen   uint64
	stats *Stats
}

func newReadStream(ch io.ReadSeeker, order binary.ByteOrder, stats *Stats) (*readStream, error) {
	pos, err := ch.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	size, err := ch.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := ch.Seek(pos, io.SeekStart); err != nil {
		return nil, err
	}
	return &readStream{
		ch:    ch,
		order: order,
		buf:   make([]byte, readBufferSize),
		chPos: pos,
		size:  size,
		stats: stats,
	}, nil
}

func (s *readStream) position() int64 {
	return s.chPos - int64(s.w-s.r)
}

// seek repositions the channel and discards buffered bytes.
func (s *readStream) seek(off int64) error {
	if _, err := s.ch.Seek(off, io.SeekStart); err != nil {
		return err
	}
	s.stats.Seeks++
	s.gen++
	s.chPos = off
	s.r, s.w = 0, 0
	return nil
}

// ensureReadable guarantees n unconsumed bytes in the buffer.
func (s *readStream) ensureReadable(n int) error {
	avail := s.w - s.r
	if n <= avail {
		return nil
	}
	if int64(n) > s.size-s.position() {
		return ErrUnexpectedEOF
	}
	if n > len(s.buf) {
		grown := make([]byte, n)
		copy(grown, s.buf[s.r:s.w])
		s.buf = grown
	} else {
		copy(s.buf, s.buf[s.r:s.w])
	}
	s.r, s.w = 0, avail

	read, err := io.ReadAtLeast(s.ch, s.buf[s.w:], n-avail)
	s.stats.Reads++
	s.w += read
	s.chPos += int64(read)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// take consumes n bytes that were made available by ensureReadable.
func (s *readStream) take(n int) []byte {
	b := s.buf[s.r : s.r+n]
	s.r += n
	return b
}

func (s *readStream) uint8() uint8 { return s.take(1)[0] }

func (s *readStream) uint16() uint16 { return s.order.Uint16(s.take(2)) }

func (s *readStream) int32() int32 { return int32(s.order.Uint32(s.take(4))) }

func (s *readStream) int64() int64 { return int64(s.order.Uint64(s.take(8))) }

func (s *readStream) float64() float64 { return math.Float64frombits(s.order.Uint64(s.take(8))) }

// count reads a non-negative i32 element count.
func (s *readStream) count() (int, error) {
	if err := s.ensureReadable(4); err != nil {
		return 0, err
	}
	off := s.position()
	n := s.int32()
	if n < 0 {
		return 0, corruptf("negative count %d at offset %d", n, off)
	}
	return int(n), nil
}

// blob reads n bytes into a new slice.
func (s *readStream) blob(n int) ([]byte, error) {
	if err := s.ensureReadable(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, s.take(n))
	return b, nil
}

// writeStream is a write-side buffer over a seekable channel. The logical
// position is chPos+len(buf).
type writeStream struct {
	ch    io.WriteSeeker
	order binary.ByteOrder
	buf   []byte
	chPos int64
	stats *Stats
}

func newWriteStream(ch io.WriteSeeker, order binary.ByteOrder, size int, stats *Stats) (*writeStream, error) {
	pos, err := ch.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = writeBufferSize
	}
	return &writeStream{
		ch:    ch,
		order: order,
		buf:   make([]byte, 0, size),
		chPos: pos,
		stats: stats,
	}, nil
}

func (s *writeStream) position() int64 {
	return s.chPos + int64(len(s.buf))
}

func (s *writeStream) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	n, err := s.ch.Write(s.buf)
	s.stats.Writes++
	s.chPos += int64(n)
	if err != nil {
		return err
	}
	if n != len(s.buf) {
		return io.ErrShortWrite
	}
	s.buf = s.buf[:0]
	return nil
}

func (s *writeStream) seek(off int64) error {
	if err := s.flush(); err != nil {
		return err
	}
	if _, err := s.ch.Seek(off, io.SeekStart); err != nil {
		return err
	}
	s.stats.Seeks++
	s.chPos = off
	return nil
}

// ensureWritable guarantees n bytes of free buffer space.
func (s *writeStream) ensureWritable(n int) error {
	if n <= cap(s.buf)-len(s.buf) {
		return nil
	}
	if err := s.flush(); err != nil {
		return err
	}
	if n > cap(s.buf) {
		s.buf = make([]byte, 0, n)
	}
	return nil
}

// grow extends the buffer by n bytes made available by ensureWritable.
func (s *writeStream) grow(n int) []byte {
	l := len(s.buf)
	s.buf = s.buf[:l+n]
	return s.buf[l:]
}

func (s *writeStream) putUint8(v uint8) { s.grow(1)[0] = v }

func (s *writeStream) putUint16(v uint16) { s.order.PutUint16(s.grow(2), v) }

func (s *writeStream) putInt32(v int32) { s.order.PutUint32(s.grow(4), uint32(v)) }

func (s *writeStream) putInt64(v int64) { s.order.PutUint64(s.grow(8), uint64(v)) }

func (s *writeStream) putFloat64(v float64) { s.order.PutUint64(s.grow(8), math.Float64bits(v)) }

func (s *writeStream) putBytes(b []byte) { copy(s.grow(len(b)), b) }

// putCount writes an i32 element count.
func (s *writeStream) putCount(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("cachefile: count %d exceeds int32", n)
	}
	if err := s.ensureWritable(4); err != nil {
		return err
	}
	s.putInt32(int32(n))
	return nil
}
