package blobstore

import (
	"context"
	"testing"

	"github.com/hupe1980/geocache/internal/cache"
)

func BenchmarkCachingBlob_ReadAt(b *testing.B) {
	ctx := context.Background()
	data := pattern(1 << 20)
	inner := &mockStore{blobs: map[string]*mockBlob{"bench": {data: data}}}
	store := NewCachingStore(inner, cache.NewLRUBlockCache(4<<20, nil), 4096)

	blob, err := store.Open(ctx, "bench")
	if err != nil {
		b.Fatal(err)
	}

	buf := make([]byte, 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		off := int64(i*4099) % int64(len(data)-len(buf))
		if _, err := blob.ReadAt(ctx, buf, off); err != nil {
			b.Fatal(err)
		}
	}
}
