// Package cachefile implements the binary snapshot format of a single cache
// node: a 64-byte header, a feature records table followed by its index, and
// a feature set records table followed by its index.
//
// # Layout
//
//	header (64 bytes, written last)
//	  timestamp       i64
//	  numFeatures     u16
//	  numFeatureSets  u16
//	  level           i32
//	  index           i32
//	  terminal        u8
//	  reserved        [3]u8
//	  recordsIndex    i64
//	  recordsTable    i64
//	  spatialIndex    i64 (always -1)
//	  featureSetIndex i64
//	  featureSetTable i64
//	feature records ...
//	feature index   (id i64, offset i64) per record, in write order
//	feature set records ...
//	feature set index
//
// All multi-byte values use the byte order the file was written with; the
// format itself does not record it. WriteFile and OpenFile add a small
// envelope in front of the body that records the byte order and the client
// version of the writer.
//
// # Reading
//
//	ctx, err := cachefile.NewContext(f, binary.BigEndian)
//	md, err := ctx.Metadata()
//	cur := ctx.Features()
//	for cur.Next() {
//	    f := cur.Feature()
//	}
//
// A Context owns one buffered view of its channel and is not safe for
// concurrent use. Open one Context per goroutine; files are immutable once
// written.
//
// # Writing
//
// WriteCache queries a model.FeatureStore and streams a complete snapshot.
// The header is backpatched after both tables are written, so an interrupted
// write leaves a file without a valid header. Callers that need atomic
// replacement write to a temporary path and rename it into place.
package cachefile
