// Package s3 stores published cache nodes in Amazon S3 with the AWS SDK v2.
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("tiles/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	c, err := geocache.New(dir, geocache.WithRemote(store, geocache.CompressionNone))
//
// Opened blobs serve ReadAt with ranged GetObject calls, so uncompressed
// nodes can be decoded in place. Put attaches a CRC32C checksum that S3
// verifies; Create streams through the multipart upload manager. List
// follows continuation tokens.
package s3
