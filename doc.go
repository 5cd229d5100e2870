// Package commonpass answers "is this a commonly used password" against a
// Bloom filter built by package dataset.
//
// The filter has no false negatives and a tunable false-positive rate, so a
// positive answer means "probably common" and a negative one means "not in
// the dataset". It is a public membership oracle, not a secret.
//
// # Basic Usage
//
//	checker := commonpass.NewChecker(commonpass.WithRoot("datasets"))
//	if err := checker.Initialize(ctx, "tiny", "v20250101.1"); err != nil {
//	    log.Fatal(err)
//	}
//	if res := checker.IsCommon(password); res.Common {
//	    fmt.Println("rejected: found in dataset", res.Version)
//	}
//
// A Checker is safe for concurrent use. Initialize may be called again at
// any time to switch tier or version; queries in flight see either the old
// or the new filter, never a mix. Several Checkers can serve different
// versions side by side.
//
// # Package Structure
//
//   - Query API: checker.go (Checker, Initialize, IsCommon)
//   - Filter format: bloom/ (OptimalParams, Filter, Encode, Decode, Open)
//   - Building: dataset/ (Builder, Manifest), internal/aggregate/ (ranking, tiers)
//   - Storage: blobstore/ (local, memory, minio, s3)
//   - Normalization: internal/normalize/
//   - Errors: errors/ (shared sentinels)
package commonpass
