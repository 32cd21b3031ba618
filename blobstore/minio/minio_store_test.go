package minio

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/geocache/blobstore"
)

// newTestStore connects to the MinIO instance named by MINIO_ENDPOINT
// (user and password default to minioadmin) or skips.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	user, pass := os.Getenv("MINIO_ROOT_USER"), os.Getenv("MINIO_ROOT_PASSWORD")
	if user == "" {
		user, pass = "minioadmin", "minioadmin"
	}

	store, err := Dial(endpoint, user, pass, false, "geocache-test", "nodes/", WithPartSize(5<<20))
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, store.bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, store.bucket, minio.MakeBucketOptions{}))
	}
	return store
}

func TestStore_Integration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	data := []byte("GCF1 header and body of a cache node")

	require.NoError(t, store.Put(ctx, "12/4711", data))
	t.Cleanup(func() { _ = store.Delete(ctx, "12/4711") })

	b, err := store.Open(ctx, "12/4711")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(len(data)), b.Size())

	all, err := blobstore.ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	buf := make([]byte, 10)
	n, err := b.ReadAt(ctx, buf, int64(len(data))-4)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := b.ReadRange(ctx, 0, 4)
	require.NoError(t, err)
	head, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "GCF1", string(head))

	w, err := store.Create(ctx, "12/4712.zst")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	t.Cleanup(func() { _ = store.Delete(ctx, "12/4712.zst") })

	names, err := store.List(ctx, "12/")
	require.NoError(t, err)
	assert.Equal(t, []string{"12/4711", "12/4712.zst"}, names)

	require.NoError(t, store.Delete(ctx, "12/4711"))
	require.NoError(t, store.Delete(ctx, "12/4711"))
	_, err = store.Open(ctx, "12/4711")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "b", "tiles/")
	assert.Equal(t, "tiles/3/17", s.key("3/17"))
	assert.Equal(t, "tiles", s.key(""))

	s = NewStore(nil, "b", "")
	assert.Equal(t, "3/17", s.key("3/17"))
}

func TestStore_PutOptions(t *testing.T) {
	s := NewStore(nil, "b", "", WithPartSize(16<<20))
	opts := s.putOptions()
	assert.Equal(t, ContentType, opts.ContentType)
	assert.Equal(t, uint64(16<<20), opts.PartSize)
	assert.True(t, opts.SendContentMd5)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"Nil", nil, false},
		{"NoSuchKey", minio.ErrorResponse{Code: "NoSuchKey"}, true},
		{"NotFound", minio.ErrorResponse{Code: "NotFound"}, true},
		{"AccessDenied", minio.ErrorResponse{Code: "AccessDenied"}, false},
		{"Other", errors.New("network down"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.notFound, errors.Is(got, blobstore.ErrNotFound))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
