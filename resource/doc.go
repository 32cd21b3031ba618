// Package resource provides shared resource accounting: a memory budget for
// transient buffers, a bound on concurrent remote transfers and an IO rate
// limit applied through throttled readers and writers.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    MaxTransfers:       4,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//
// All methods accept a nil *Controller and then impose no limits.
package resource
