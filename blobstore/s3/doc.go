// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("commonpass/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// WithEndpoint points the client at an S3-compatible server and switches to
// path-style addressing.
package s3
