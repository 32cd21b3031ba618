// Package cache provides a byte-bounded LRU cache for immutable blocks of
// remote cache files.
//
// Blocks are keyed by blob path and block index. Memory held by cached
// blocks is accounted on an optional resource.Controller; a block is not
// cached when the controller denies the memory.
package cache
