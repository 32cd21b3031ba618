// Package geocache stores paged snapshots of geospatial features as binary
// cache files, one file per quadtree node.
//
// A node is addressed by its level and index and lives at
// <root>/<level>/<index>. Each file holds the features a source returned for
// one query together with the feature sets they reference, an id index for
// both, and a header recording whether the file is the last page of its
// query (terminal).
//
// # Quick Start
//
//	ctx := context.Background()
//	c, _ := geocache.New("./cache", geocache.WithClientVersion(3))
//	defer c.Close()
//
//	id := geocache.NodeID{Level: 12, Index: 4711}
//	md, _ := c.Write(ctx, id, source, model.FeatureQuery{Limit: 500})
//	fmt.Println(md.NumFeatures, md.Terminal)
//
//	n, _ := c.Open(ctx, id, geocache.WithTerminalOnly())
//	defer n.Close()
//	f, err := n.FindFeature(42)
//
// # Writes
//
// Writes go to a swap file under <root>/.swap and are renamed over the node
// once the header is backpatched and the file is synced, so readers see
// either the old or the new file. WithAtomicWrites(false) writes in place
// instead. Concurrent writes of one node in the process run one after the
// other; an advisory lock keeps other processes from writing the same node.
//
// # Remote Tier
//
// With WithRemote a node can be published to a blobstore.BlobStore
// (optionally LZ4 or ZSTD compressed), fetched back into the local cache, or,
// when uncompressed, opened in place with range reads through a block cache:
//
//	store, _ := s3.New(ctx, "tiles", s3.WithPrefix("v3/"))
//	c, _ := geocache.New(dir,
//	    geocache.WithRemote(store, geocache.CompressionNone),
//	    geocache.WithBlockCache(64<<20, 0),
//	)
//	_ = c.Publish(ctx, id)
//	n, _ := c.OpenRemote(ctx, id)
//
// # Stale Files
//
// Files carry the client version that wrote them. Node.Stale reports a
// mismatch; WithCurrentVersionOnly makes Open reject such files.
//
// The file format itself is implemented by package cachefile.
package geocache
