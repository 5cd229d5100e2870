package dataset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/bloom"
	cperrors "github.com/tamirms/commonpass/errors"
	"github.com/tamirms/commonpass/internal/aggregate"
)

const testVersion = "v20250101.1"

var testTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func newTestBuilder(t *testing.T, store blobstore.Store, opts ...Option) *Builder {
	t.Helper()
	opts = append([]Option{WithVersion(testVersion), WithClock(fixedClock)}, opts...)
	b, err := NewBuilder(store, opts...)
	require.NoError(t, err)
	return b
}

func source(name, body string) aggregate.Source {
	return aggregate.Source{Name: name, Reader: strings.NewReader(body)}
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestBuildEndToEnd(t *testing.T) {
	store := blobstore.NewMemoryStore()
	b := newTestBuilder(t, store)

	m, err := b.Build(context.Background(), source("sample_global.txt", "password\npassword\nhunter2\n"))
	require.NoError(t, err)

	assert.Equal(t, testVersion, m.Version)
	assert.Equal(t, "2025-01-01", m.Date)
	assert.Equal(t, "2025-01-01T00:00:00Z", m.CreatedAt)
	assert.Equal(t, []string{"sample_global.txt"}, m.Sources)
	assert.Equal(t, Counts{Tiny: 2, Small: 2, Medium: 2, Full: 2}, m.Counts)
	assert.Equal(t, int64(3), m.Stats.Accepted)
	_, err = uuid.Parse(m.BuildID)
	require.NoError(t, err)

	txt, err := store.Get(context.Background(), testVersion+"/common_tiny.txt")
	require.NoError(t, err)
	assert.Equal(t, "password\nhunter2\n", string(txt))

	bf, err := store.Get(context.Background(), FilterName(testVersion, "tiny"))
	require.NoError(t, err)
	assert.Len(t, bf, 1209)
	assert.Equal(t, "79feb0cd3c4caaa3fb56629481deef73936491684a5dbb44365ab25cb1373ed9", digest(bf))

	f, h, err := bloom.Decode(bf)
	require.NoError(t, err)
	assert.True(t, f.Contains("password"))
	assert.True(t, f.Contains("hunter2"))
	assert.False(t, f.Contains("correct horse battery staple"))
	assert.Equal(t, "tiny", h.Tier)
	assert.Equal(t, int64(2), h.ExpectedN)

	assert.Equal(t, BloomParams{
		ExpectedN: 2,
		FPR:       0.01,
		HashCount: 6,
		BitSize:   8192,
		BitsXXH64: fmt.Sprintf("%016x", f.Checksum()),
	}, m.Bloom)

	require.Len(t, m.Files, 12)
	names := make([]string, 0, len(m.Files))
	for _, fi := range m.Files {
		names = append(names, fi.Name)
		data, err := store.Get(context.Background(), testVersion+"/"+fi.Name)
		require.NoError(t, err)
		assert.Equal(t, digest(data), fi.SHA256, fi.Name)
		assert.Equal(t, int64(len(data)), fi.Size, fi.Name)
	}
	assert.Equal(t, []string{
		"common_tiny.txt", "common_tiny.bf", "common_tiny.json.gz",
		"common_small.txt", "common_small.bf", "common_small.json.gz",
		"common_medium.txt", "common_medium.bf", "common_medium.json.gz",
		"common_full.txt", "common_full.bf", "common_full.json.gz",
	}, names)

	read, err := ReadManifest(context.Background(), store, testVersion)
	require.NoError(t, err)
	assert.Equal(t, m, read)
}

func TestBuildJSONCopy(t *testing.T) {
	store := blobstore.NewMemoryStore()
	b := newTestBuilder(t, store, WithLocale("de"))

	_, err := b.Build(context.Background(), source("s", "passw\u00f6rd,5\n<tag>&\n"))
	require.NoError(t, err)

	gz, err := store.Get(context.Background(), testVersion+"/common_small.json.gz")
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	require.NoError(t, err)
	assert.True(t, zr.Header.ModTime.IsZero(), "gzip mtime is zero")
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "passw\u00f6rd", "non-ASCII is not escaped")
	assert.Contains(t, string(raw), "<tag>&")
	assert.False(t, bytes.HasSuffix(raw, []byte("\n")))

	var got struct {
		Meta struct {
			Version     string            `json:"version"`
			Tier        string            `json:"tier"`
			Count       int               `json:"count"`
			BloomParams BloomParams       `json:"bloom_params"`
			SHA256BF    string            `json:"sha256_bf"`
			Locale      string            `json:"locale"`
			CreatedAt   string            `json:"created_at"`
			Files       map[string]string `json:"files"`
		} `json:"meta"`
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))

	bf, err := store.Get(context.Background(), FilterName(testVersion, "small"))
	require.NoError(t, err)
	txt, err := store.Get(context.Background(), testVersion+"/common_small.txt")
	require.NoError(t, err)

	assert.Equal(t, testVersion, got.Meta.Version)
	assert.Equal(t, "small", got.Meta.Tier)
	assert.Equal(t, 2, got.Meta.Count)
	assert.Equal(t, "de", got.Meta.Locale)
	assert.Equal(t, "2025-01-01T00:00:00Z", got.Meta.CreatedAt)
	assert.Equal(t, digest(bf), got.Meta.SHA256BF)
	assert.Equal(t, map[string]string{
		"common_small.txt": digest(txt),
		"common_small.bf":  digest(bf),
	}, got.Meta.Files)
	assert.Equal(t, []string{"passw\u00f6rd", "<tag>&"}, got.Data)
}

func TestBuildLocaleGolden(t *testing.T) {
	store := blobstore.NewMemoryStore()
	b := newTestBuilder(t, store, WithLocale("en-us"))

	m, err := b.Build(context.Background(), source("s", "password\npassword\nhunter2\n"))
	require.NoError(t, err)
	assert.Equal(t, "en-US", m.Locale)

	bf, err := store.Get(context.Background(), FilterName(testVersion, "tiny"))
	require.NoError(t, err)
	assert.Len(t, bf, 1226)
	assert.Equal(t, "618a69a6c5ca046cfef19be79bb398bd9a2c669adb8bfbc4c12f97d95c1d2649", digest(bf))
}

func TestBuildDeterministicAcrossWorkers(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 2500; i++ {
		fmt.Fprintf(&body, "pw%d,%d\n", i, i%97)
	}
	id := uuid.MustParse("6f1c2a9e-8d0b-4c3e-9a7f-1b2c3d4e5f60")

	build := func(workers int) *blobstore.MemoryStore {
		store := blobstore.NewMemoryStore()
		b := newTestBuilder(t, store, WithWorkers(workers), WithBuildID(id))
		_, err := b.Build(context.Background(), source("s", body.String()))
		require.NoError(t, err)
		return store
	}
	a, c := build(1), build(4)

	names, err := a.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, names, 13)
	for _, name := range names {
		x, err := a.Get(context.Background(), name)
		require.NoError(t, err)
		y, err := c.Get(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, x, y, name)
	}
}

func TestBuildTiersNest(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 1500; i++ {
		fmt.Fprintf(&body, "pw%04d,%d\n", i, 2000-i)
	}
	store := blobstore.NewMemoryStore()
	m, err := newTestBuilder(t, store).Build(context.Background(), source("s", body.String()))
	require.NoError(t, err)
	assert.Equal(t, Counts{Tiny: 1000, Small: 1500, Medium: 1500, Full: 1500}, m.Counts)
	assert.Equal(t, 1000, m.Counts.Get(aggregate.Tiny))

	lines := func(tier string) []string {
		txt, err := store.Get(context.Background(), testVersion+"/common_"+tier+".txt")
		require.NoError(t, err)
		return strings.Split(strings.TrimSuffix(string(txt), "\n"), "\n")
	}
	tiny, small := lines("tiny"), lines("small")
	require.Len(t, tiny, 1000)
	assert.Equal(t, tiny, small[:1000])
	assert.Equal(t, "pw0000", tiny[0])

	assert.Equal(t, int64(1000), m.Bloom.ExpectedN)
	assert.Equal(t, uint64(9592), m.Bloom.BitSize)
}

func TestBuildEmptyCorpus(t *testing.T) {
	store := blobstore.NewMemoryStore()
	m, err := newTestBuilder(t, store).Build(context.Background(), source("s", "\n   \nbad,x\n"))
	require.NoError(t, err)
	assert.Equal(t, Counts{}, m.Counts)
	assert.Equal(t, int64(1), m.Stats.Malformed)

	txt, err := store.Get(context.Background(), testVersion+"/common_full.txt")
	require.NoError(t, err)
	assert.Empty(t, txt)

	bf, err := store.Get(context.Background(), FilterName(testVersion, "full"))
	require.NoError(t, err)
	_, h, err := bloom.Decode(bf)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.ExpectedN)
}

func TestBuildInvalidEncodingWritesNothing(t *testing.T) {
	store := blobstore.NewMemoryStore()
	b := newTestBuilder(t, store)

	_, err := b.Build(context.Background(),
		source("good.txt", "password\n"),
		source("bad.txt", "ok\n\xc3\x28\n"),
	)
	require.ErrorIs(t, err, cperrors.ErrInvalidEncoding)
	assert.Contains(t, err.Error(), "bad.txt line 2")

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBuildDefaultVersion(t *testing.T) {
	store := blobstore.NewMemoryStore()
	b, err := NewBuilder(store, WithClock(func() time.Time {
		return time.Date(2024, 12, 31, 23, 59, 59, 999, time.FixedZone("x", -3600))
	}))
	require.NoError(t, err)

	m, err := b.Build(context.Background(), source("s", "a\n"))
	require.NoError(t, err)
	assert.Equal(t, "v20250101.1", m.Version, "UTC date")
	assert.Equal(t, "2025-01-01T00:59:59Z", m.CreatedAt)
}

func TestNewBuilderValidates(t *testing.T) {
	store := blobstore.NewMemoryStore()
	_, err := NewBuilder(store, WithFPR(0))
	require.ErrorIs(t, err, cperrors.ErrInvalidFPR)
	_, err = NewBuilder(store, WithFPR(1))
	require.ErrorIs(t, err, cperrors.ErrInvalidFPR)
	_, err = NewBuilder(store, WithVersion("latest"))
	require.ErrorIs(t, err, cperrors.ErrInvalidVersion)
	_, err = NewBuilder(store, WithLocale("not a locale!"))
	require.ErrorIs(t, err, cperrors.ErrInvalidLocale)
	_, err = NewBuilder(nil)
	require.Error(t, err)

	b, err := NewBuilder(store)
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.ErrorIs(t, err, cperrors.ErrNoSources)
}

func TestBuildFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "raw", "top.txt")
	c := filepath.Join(dir, "raw", "leaks.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(a), 0o755))
	require.NoError(t, os.WriteFile(a, []byte("password\n123456\n"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("123456,10\r\nqwerty,3\r\n"), 0o644))

	out := filepath.Join(dir, "datasets")
	b := newTestBuilder(t, blobstore.NewLocalStore(out))
	m, err := b.BuildFiles(context.Background(), a, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.txt", "leaks.csv"}, m.Sources)

	txt, err := os.ReadFile(filepath.Join(out, testVersion, "common_tiny.txt"))
	require.NoError(t, err)
	assert.Equal(t, "123456\nqwerty\npassword\n", string(txt))
	_, err = os.Stat(filepath.Join(out, testVersion, "metadata.json"))
	require.NoError(t, err)

	_, err = b.BuildFiles(context.Background(), a, filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := blobstore.NewMemoryStore()
	_, err := newTestBuilder(t, store).Build(ctx, source("s", "a\n"))
	require.ErrorIs(t, err, context.Canceled)
}
