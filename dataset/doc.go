// Package dataset builds a versioned password dataset: one Bloom filter per
// tier plus human-auditable copies and an integrity manifest.
//
// For version V and tier T the builder writes, through a blobstore.Store:
//
//	V/common_T.txt      ranked passwords, one per line
//	V/common_T.bf       the serialized filter (see package bloom)
//	V/common_T.json.gz  {"meta": {...}, "data": [...]}
//	V/metadata.json     the Manifest
//
// Artifacts are computed in memory and written only after every tier has
// been built, so a failed build leaves the store untouched. Given the same
// sources, options and clock, the .txt, .bf and .json.gz blobs are
// byte-identical across runs and worker counts.
//
// # Usage
//
//	b, err := dataset.NewBuilder(blobstore.NewLocalStore("datasets"),
//	    dataset.WithVersion("v20250101.1"),
//	    dataset.WithFPR(0.01),
//	)
//	if err != nil {
//	    return err
//	}
//	manifest, err := b.BuildFiles(ctx, "raw/top.txt", "raw/leaks.csv")
package dataset
