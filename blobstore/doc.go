// Package blobstore provides storage abstraction for published cache files.
//
// BlobStore is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic rename on Close
//   - MemoryStore: in-memory, for tests
//   - CachingStore: block-caching wrapper for any BlobStore
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible stores
//
// # Reading cache files
//
// NewReader adapts a Blob into an io.ReadSeeker so a cache file can be
// decoded in place:
//
//	blob, err := store.Open(ctx, "3/17")
//	...
//	c, err := cachefile.OpenFile(blobstore.NewReader(ctx, blob))
//
// Wrap a remote store in a CachingStore so repeated index and record reads
// hit the block cache instead of issuing a range request each.
package blobstore
