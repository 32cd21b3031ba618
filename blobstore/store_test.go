package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "b", data))
	data[0] = 'z'

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 2, store.Len())

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Open(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewReader(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "r", []byte("0123456789")))

	blob, err := store.Open(ctx, "r")
	require.NoError(t, err)

	r := NewReader(ctx, blob)
	_, err = r.Seek(4, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "456", string(buf))

	end, err := r.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(10), end)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewReader(canceled, blob).Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "n", []byte("0123456789")))
	blob, err := store.Open(ctx, "n")
	require.NoError(t, err)

	tests := []struct {
		name    string
		off     int64
		size    int
		want    string
		wantErr error
	}{
		{"Inside", 2, 3, "234", nil},
		{"Tail", 8, 4, "89", io.EOF},
		{"AtEnd", 10, 1, "", io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.size)
			n, err := blob.ReadAt(ctx, buf, tt.off)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, string(buf[:n]))
		})
	}

	_, err = blob.ReadAt(ctx, make([]byte, 1), -1)
	assert.Error(t, err)
	_, err = blob.ReadRange(ctx, 0, -1)
	assert.Error(t, err)
	_, err = blob.ReadRange(ctx, 10, 1)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := blob.ReadRange(ctx, 7, 100)
	require.NoError(t, err)
	tail, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "789", string(tail))
}

func TestMemoryStore_OpenKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "n", []byte("first")))

	blob, err := store.Open(ctx, "n")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "n", []byte("second")))

	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestMemoryStore_Upload(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w, err := store.Create(ctx, "n")
	require.NoError(t, err)
	_, err = w.Write([]byte("part"))
	require.NoError(t, err)
	_, err = store.Open(ctx, "n")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	assert.Error(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	w, err = store.Create(canceled, "m")
	require.NoError(t, err)
	cancel()
	assert.ErrorIs(t, w.Close(), context.Canceled)
	assert.Equal(t, 1, store.Len())
}
