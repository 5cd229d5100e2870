package config

import (
	"context"
	"fmt"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/blobstore/minio"
	"github.com/tamirms/commonpass/blobstore/s3"
)

// OpenStore returns the blob store selected by cfg.Store. The local store
// is rooted at cfg.Root; the remote stores use cfg.Bucket and cfg.Prefix.
func OpenStore(ctx context.Context, cfg *Config) (blobstore.Store, error) {
	switch cfg.Store {
	case StoreLocal, "":
		return blobstore.NewLocalStore(cfg.Root), nil
	case StoreS3:
		opts := []s3.Option{s3.WithPrefix(cfg.Prefix)}
		if cfg.S3Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.S3Endpoint))
		}
		st, err := s3.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return st, nil
	case StoreMinio:
		st, err := minio.Dial(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("minio store: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
