package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

var errUploadClosed = errors.New("blobstore: upload already closed")

// MemoryStore keeps published nodes in process memory. It stands in for a
// remote bucket in tests and examples.
//
// Stored slices are never modified after they are committed, so open blobs
// keep reading the bytes they were opened on even if the name is replaced.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ BlobStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) commit(name string, data []byte) {
	m.mu.Lock()
	m.objects[name] = data
	m.mu.Unlock()
}

// Open returns a handle on the bytes currently stored under name.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.objects[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return memBlob(data), nil
}

// Put stores a copy of data under name.
func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.commit(name, bytes.Clone(data))
	return nil
}

// Create returns an upload that becomes visible under name when closed.
func (m *MemoryStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memUpload{ctx: ctx, store: m, name: name}, nil
}

// Delete removes name. A missing name is not an error.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.objects, name)
	m.mu.Unlock()
	return nil
}

// List returns the sorted names starting with prefix.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	slices.Sort(names)
	return names, nil
}

// Len reports how many names are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

type memBlob []byte

func (b memBlob) Size() int64 { return int64(len(b)) }

func (b memBlob) Close() error { return nil }

func (b memBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, fmt.Errorf("blobstore: negative offset %d", off)
	}
	if off >= b.Size() {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b memBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if off < 0 || length < 0 {
		return nil, fmt.Errorf("blobstore: invalid range %d+%d", off, length)
	}
	if off >= b.Size() {
		return nil, io.EOF
	}
	end := min(off+length, b.Size())
	return io.NopCloser(bytes.NewReader(b[off:end])), nil
}

// memUpload buffers a streaming write until Close commits it.
type memUpload struct {
	ctx    context.Context
	store  *MemoryStore
	name   string
	buf    bytes.Buffer
	closed bool
}

func (u *memUpload) Write(p []byte) (int, error) {
	if u.closed {
		return 0, errUploadClosed
	}
	return u.buf.Write(p)
}

func (u *memUpload) Sync() error { return nil }

func (u *memUpload) Close() error {
	if u.closed {
		return errUploadClosed
	}
	u.closed = true
	if err := u.ctx.Err(); err != nil {
		return err
	}
	u.store.commit(u.name, bytes.Clone(u.buf.Bytes()))
	return nil
}
