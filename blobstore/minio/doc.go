// Package minio stores published cache nodes in MinIO or any other
// S3-compatible object store (Ceph, Garage, SeaweedFS) through the MinIO
// client, without pulling in the AWS SDK.
//
//	store, err := minio.Dial("localhost:9000", "minioadmin", "minioadmin", false, "nodes", "tiles/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := geocache.New(dir, geocache.WithRemote(store, geocache.CompressionLZ4))
//
// Objects are uploaded with SendContentMd5 so the server rejects corrupted
// bodies. Reads are ranged GETs, which lets Cache.OpenRemote decode a node
// without downloading it whole.
package minio
