package resource

import (
	"context"
	"io"
)

// throttle waits for n bytes worth of IO budget in burst-sized steps.
func throttle(ctx context.Context, rc *Controller, n int) error {
	burst := rc.ioBurst()
	if burst <= 0 {
		return nil
	}
	for n > 0 {
		step := min(n, burst)
		if err := rc.AcquireIO(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// RateLimitedWriter wraps an io.Writer with rate limiting.
type RateLimitedWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{
		w:   w,
		rc:  rc,
		ctx: ctx,
	}
}

func (w *RateLimitedWriter) Write(p []byte) (n int, err error) {
	if err := throttle(w.ctx, w.rc, len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader wraps an io.Reader with rate limiting.
type RateLimitedReader struct {
	r   io.Reader
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

// Read charges the bytes actually read, after the read.
func (r *RateLimitedReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	if n > 0 {
		if werr := throttle(r.ctx, r.rc, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// ReadSeeker is a throttled io.ReadSeeker.
type ReadSeeker struct {
	RateLimitedReader
	s io.Seeker
}

// NewReadSeeker throttles reads from rs.
func NewReadSeeker(ctx context.Context, rs io.ReadSeeker, rc *Controller) *ReadSeeker {
	return &ReadSeeker{RateLimitedReader: *NewRateLimitedReader(ctx, rs, rc), s: rs}
}

func (r *ReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return r.s.Seek(offset, whence)
}

// WriteSeeker is a throttled io.WriteSeeker.
type WriteSeeker struct {
	RateLimitedWriter
	s io.Seeker
}

// NewWriteSeeker throttles writes to ws.
func NewWriteSeeker(ctx context.Context, ws io.WriteSeeker, rc *Controller) *WriteSeeker {
	return &WriteSeeker{RateLimitedWriter: *NewRateLimitedWriter(ctx, ws, rc), s: ws}
}

func (w *WriteSeeker) Seek(offset int64, whence int) (int64, error) {
	return w.s.Seek(offset, whence)
}
