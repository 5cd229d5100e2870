// Package blobstore abstracts where dataset artifacts are written and where
// filters are read from.
//
// Names are slash-separated and relative ("v20250101.1/common_tiny.bf").
// Blobs are written whole and never modified in place.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic temp-file-and-rename writes
//   - MemoryStore: in-process map, for tests
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3
package blobstore
