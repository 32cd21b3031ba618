package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/geocache/resource"
)

func TestLRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(30, nil)

	c.Set(ctx, Key{Path: "a", Block: 0}, make([]byte, 10))
	c.Set(ctx, Key{Path: "a", Block: 1}, make([]byte, 10))
	c.Set(ctx, Key{Path: "b", Block: 0}, make([]byte, 10))

	// Touch a/0 so a/1 is the oldest.
	_, ok := c.Get(ctx, Key{Path: "a", Block: 0})
	assert.True(t, ok)

	c.Set(ctx, Key{Path: "c", Block: 0}, make([]byte, 10))
	assert.Equal(t, int64(30), c.Size())

	_, ok = c.Get(ctx, Key{Path: "a", Block: 1})
	assert.False(t, ok)
	_, ok = c.Get(ctx, Key{Path: "a", Block: 0})
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUEdgeCases(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 15})
	c := NewLRUBlockCache(50, rc)
	k := Key{Path: "x", Block: 1}

	// Item larger than capacity
	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok)

	c.Set(ctx, k, make([]byte, 10))
	assert.Equal(t, int64(10), rc.MemoryUsage())

	// Re-set is a no-op for immutable blocks
	c.Set(ctx, k, make([]byte, 10))
	assert.Equal(t, int64(10), c.Size())

	// Controller denies: not cached
	c.Set(ctx, Key{Path: "x", Block: 2}, make([]byte, 10))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(10), rc.MemoryUsage())
}

func TestLRUInvalidate(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{})
	c := NewLRUBlockCache(100, rc)

	c.Set(ctx, Key{Path: "a", Block: 0}, make([]byte, 10))
	c.Set(ctx, Key{Path: "a", Block: 1}, make([]byte, 10))
	c.Set(ctx, Key{Path: "b", Block: 0}, make([]byte, 10))

	c.Invalidate(InvalidatePath("a"))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(10), rc.MemoryUsage())

	assert.NoError(t, c.Close())
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Size())
}
