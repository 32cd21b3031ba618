// Package fs is the filesystem seam of the node cache.
//
// [FileSystem] covers what a cache root needs: files opened for reading and
// writing, swap files created with CreateTemp, rename, removal, directory
// listing and advisory node locks. [LocalFS] (fs.Default) is backed by the os
// package; [FaultyFS] wraps another FileSystem and injects write, sync, close
// or rename failures for files whose path contains a rule pattern:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".swap", fs.Fault{FailAfterBytes: 1024})
//
// Lock takes an exclusive, non-blocking flock (a lock file on other
// platforms) and returns ErrLocked while another holder owns it.
//
// Calls are synchronous and take no context; remote IO goes through the
// blobstore package instead.
package fs
