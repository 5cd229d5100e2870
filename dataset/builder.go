package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/bloom"
	cperrors "github.com/tamirms/commonpass/errors"
	"github.com/tamirms/commonpass/internal/aggregate"
	"github.com/tamirms/commonpass/internal/logging"
)

// Builder builds datasets into a store. A Builder may be reused; each Build
// call is independent.
type Builder struct {
	store blobstore.Store
	cfg   *buildConfig
	log   *logging.Logger
}

// NewBuilder validates the options and returns a Builder writing to store.
func NewBuilder(store blobstore.Store, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, errors.New("dataset: nil store")
	}
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if !(cfg.fpr > 0 && cfg.fpr < 1) {
		return nil, fmt.Errorf("%w: %v", cperrors.ErrInvalidFPR, cfg.fpr)
	}
	if cfg.version != "" {
		if err := ValidateVersion(cfg.version); err != nil {
			return nil, err
		}
	}
	locale, err := CanonicalLocale(cfg.locale)
	if err != nil {
		return nil, err
	}
	cfg.locale = locale
	if cfg.clock == nil {
		cfg.clock = time.Now
	}
	if cfg.workers <= 0 {
		cfg.workers = 1
	}

	return &Builder{store: store, cfg: cfg, log: logging.From(cfg.logger)}, nil
}

// Build aggregates sources, builds every tier and writes the artifacts and
// the manifest. Sources are read in order; an invalid source aborts the
// build before anything is written.
func (b *Builder) Build(ctx context.Context, sources ...aggregate.Source) (m *Manifest, err error) {
	if len(sources) == 0 {
		return nil, cperrors.ErrNoSources
	}
	start := time.Now()
	createdAt := b.cfg.clock().UTC().Truncate(time.Second)
	version := b.cfg.version
	if version == "" {
		version = DefaultVersion(createdAt)
	}
	log := b.log.WithVersion(version)
	defer func() {
		files := 0
		if m != nil {
			files = len(m.Files) + 1
		}
		log.LogBuild(ctx, version, files, time.Since(start), err)
	}()

	agg := aggregate.New()
	for _, src := range sources {
		before := agg.Stats()
		if err := agg.Add(ctx, src); err != nil {
			log.LogAggregate(ctx, src.Name, 0, 0, 0, err)
			return nil, err
		}
		after := agg.Stats()
		log.LogAggregate(ctx, src.Name,
			after.Lines-before.Lines, after.Accepted-before.Accepted, after.Malformed-before.Malformed, nil)
	}

	tiers := aggregate.Split(agg.Rank())
	built := make([]*tierArtifacts, len(tiers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.workers)
	for i, te := range tiers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := buildTier(tierInput{
				tier:      te.Tier,
				passwords: aggregate.Passwords(te.Entries),
				version:   version,
				locale:    b.cfg.locale,
				fpr:       b.cfg.fpr,
				createdAt: createdAt,
			})
			if err != nil {
				return fmt.Errorf("build tier %s: %w", te.Tier, err)
			}
			log.LogTier(gctx, string(te.Tier), a.count, a.params.BitSize, a.params.HashCount, a.checksum)
			built[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buildID := b.cfg.buildID
	if buildID == uuid.Nil {
		buildID = uuid.New()
	}
	m = &Manifest{
		Version:   version,
		Date:      createdAt.Format("2006-01-02"),
		CreatedAt: createdAt.Format(bloom.TimeLayout),
		BuildID:   buildID.String(),
		Locale:    b.cfg.locale,
		FPR:       bloom.FPR(b.cfg.fpr),
		Sources:   baseNames(agg.Sources()),
		Stats:     agg.Stats(),
		Files:     make([]FileInfo, 0, 3*len(built)),
	}

	for _, a := range built {
		m.Counts.set(a.tier, a.count)
		for _, art := range []struct {
			ext  string
			data []byte
		}{
			{".txt", a.txt},
			{".bf", a.bf},
			{".json.gz", a.jsonGz},
		} {
			name := BaseName(string(a.tier), art.ext)
			if err := b.store.Put(ctx, path.Join(version, name), art.data); err != nil {
				return nil, fmt.Errorf("write %s: %w", name, err)
			}
			m.Files = append(m.Files, FileInfo{Name: name, SHA256: sha256Hex(art.data), Size: int64(len(art.data))})
		}
		if a.tier == aggregate.Tiny {
			m.Bloom = a.params
			m.Bloom.BitsXXH64 = fmt.Sprintf("%016x", a.checksum)
		}
	}

	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := b.store.Put(ctx, ManifestName(version), data); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

// BuildFiles opens each path as a source and calls Build.
func (b *Builder) BuildFiles(ctx context.Context, paths ...string) (*Manifest, error) {
	files := make([]*os.File, 0, len(paths))
	closeAll := func() error {
		var errs []error
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		return errors.Join(errs...)
	}

	sources := make([]aggregate.Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open source: %w", err), closeAll())
		}
		files = append(files, f)
		sources = append(sources, aggregate.Source{Name: p, Reader: f})
	}

	m, err := b.Build(ctx, sources...)
	if cerr := closeAll(); cerr != nil && err == nil {
		return nil, cerr
	}
	return m, err
}

func baseNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Base(n)
	}
	return out
}
