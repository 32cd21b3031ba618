package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/hupe1980/geocache/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBlob struct {
	mu        sync.Mutex
	data      []byte
	reads     int
	readBytes int
}

func (m *mockBlob) Close() error { return nil }
func (m *mockBlob) Size() int64  { return int64(len(m.data)) }
func (m *mockBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	m.readBytes += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
func (m *mockBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data[off : off+length])), nil
}

type mockStore struct {
	blobs map[string]*mockBlob
	opens int
}

func (m *mockStore) Open(_ context.Context, name string) (Blob, error) {
	m.opens++
	if b, ok := m.blobs[name]; ok {
		return b, nil
	}
	return nil, ErrNotFound
}
func (m *mockStore) Create(context.Context, string) (WritableBlob, error) { return nil, nil }
func (m *mockStore) Put(_ context.Context, name string, data []byte) error {
	if m.blobs == nil {
		m.blobs = make(map[string]*mockBlob)
	}
	m.blobs[name] = &mockBlob{data: data}
	return nil
}
func (m *mockStore) Delete(context.Context, string) error             { return nil }
func (m *mockStore) List(context.Context, string) ([]string, error) { return nil, nil }

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCachingStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	data := pattern(1024)
	inner := &mockStore{blobs: map[string]*mockBlob{"test": {data: data}}}

	store := NewCachingStore(inner, cache.NewLRUBlockCache(1024*1024, nil), 256)
	blob, err := store.Open(ctx, "test")
	require.NoError(t, err)
	mBlob := inner.blobs["test"]

	buf := make([]byte, 100)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[:100], buf)
	assert.Equal(t, 1, mBlob.reads)
	assert.Equal(t, 256, mBlob.readBytes)

	// Cached.
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, mBlob.reads)

	// Spans block 0 (cached) and block 1 (missing).
	n, err = blob.ReadAt(ctx, buf, 200)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[200:300], buf)
	assert.Equal(t, 2, mBlob.reads)
	assert.Equal(t, 512, mBlob.readBytes)
}

func TestCachingStore_Coalescing(t *testing.T) {
	ctx := context.Background()
	data := pattern(10 * 1024)
	inner := &mockStore{blobs: map[string]*mockBlob{"test": {data: data}}}

	store := NewCachingStore(inner, cache.NewLRUBlockCache(1024*1024, nil), 1024)
	blob, err := store.Open(ctx, "test")
	require.NoError(t, err)

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf)
	assert.Equal(t, 1, inner.blobs["test"].reads)
}

func TestCachingStore_ShortTail(t *testing.T) {
	ctx := context.Background()
	data := []byte("hello")
	inner := &mockStore{blobs: map[string]*mockBlob{"small": {data: data}}}
	store := NewCachingStore(inner, cache.NewLRUBlockCache(1024, nil), 256)

	blob, err := store.Open(ctx, "small")
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
	assert.Equal(t, data, buf[:n])

	_, err = blob.ReadAt(ctx, buf, 5)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStore_PutInvalidates(t *testing.T) {
	ctx := context.Background()
	c := cache.NewLRUBlockCache(1024*1024, nil)
	store := NewCachingStore(NewMemoryStore(), c, 4)

	require.NoError(t, store.Put(ctx, "a", []byte("aaaaaaaa")))
	blob, err := store.Open(ctx, "a")
	require.NoError(t, err)
	_, err = ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	require.NoError(t, store.Put(ctx, "a", []byte("bbbbbbbb")))
	assert.Equal(t, 0, c.Len())

	blob, err = store.Open(ctx, "a")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb", string(got))
}

func TestCachingStore_ReadRange(t *testing.T) {
	ctx := context.Background()
	store := NewCachingStore(NewMemoryStore(), cache.NewLRUBlockCache(1024, nil), 4)
	require.NoError(t, store.Put(ctx, "r", []byte("0123456789")))

	blob, err := store.Open(ctx, "r")
	require.NoError(t, err)

	rc, err := blob.ReadRange(ctx, 3, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "3456789", string(got))

	_, err = blob.ReadRange(ctx, 10, 1)
	assert.ErrorIs(t, err, io.EOF)
}
