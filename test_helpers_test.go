package commonpass

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/dataset"
	"github.com/tamirms/commonpass/internal/aggregate"
)

const (
	versionA = "v20250101.1"
	versionB = "v20250102.1"
)

// buildDataset builds a dataset from lines into store and returns the
// manifest.
func buildDataset(t testing.TB, store blobstore.Store, version string, lines ...string) *dataset.Manifest {
	t.Helper()
	b, err := dataset.NewBuilder(store,
		dataset.WithVersion(version),
		dataset.WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	m, err := b.Build(context.Background(), aggregate.Source{
		Name:   "test.txt",
		Reader: strings.NewReader(strings.Join(lines, "\n") + "\n"),
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// buildLocalDataset builds under a fresh temp dir and returns the root.
func buildLocalDataset(t testing.TB, version string, lines ...string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "datasets")
	buildDataset(t, blobstore.NewLocalStore(root), version, lines...)
	return root
}

func mustInitialize(t testing.TB, c *Checker, tier, version string, opts ...InitOption) {
	t.Helper()
	if err := c.Initialize(context.Background(), tier, version, opts...); err != nil {
		t.Fatalf("Initialize(%q, %q): %v", tier, version, err)
	}
}
