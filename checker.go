package commonpass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/bloom"
	"github.com/tamirms/commonpass/dataset"
	cperrors "github.com/tamirms/commonpass/errors"
	"github.com/tamirms/commonpass/internal/aggregate"
	"github.com/tamirms/commonpass/internal/logging"
	"github.com/tamirms/commonpass/internal/normalize"
)

// ReasonBloomMatch is the Result reason for a filter hit.
const ReasonBloomMatch = "bloom-match"

// Result is the answer to IsCommon. A negative result carries no reason or
// version.
type Result struct {
	Common  bool   `json:"common"`
	Reason  string `json:"reason,omitempty"`
	Version string `json:"version,omitempty"`
}

// Info describes the loaded filter.
type Info struct {
	Version  string
	Tier     string
	Location string
	Header   bloom.Header
	LoadedAt time.Time
}

// loaded is published as a unit; it is never modified after Store.
type loaded struct {
	filter *bloom.Filter
	info   Info
}

// Checker holds at most one loaded filter and answers queries against it.
// The zero value is not usable; call NewChecker.
type Checker struct {
	store blobstore.Store
	mode  normalize.Mode
	log   *logging.Logger

	mu  sync.Mutex // serializes Initialize
	cur atomic.Pointer[loaded]
}

// NewChecker returns a Checker with nothing loaded. IsCommon reports every
// password as not common until Initialize succeeds.
func NewChecker(opts ...Option) *Checker {
	cfg := &checkerConfig{root: DefaultRoot}
	for _, opt := range opts {
		opt(cfg)
	}
	store := cfg.store
	if store == nil {
		store = blobstore.NewLocalStore(cfg.root)
	}
	return &Checker{
		store: store,
		mode:  cfg.mode,
		log:   logging.From(cfg.logger),
	}
}

// Path returns the local path of the filter for tier and version under
// root: root/version/common_tier.bf.
func Path(root, version, tier string) string {
	return filepath.Join(root, filepath.FromSlash(dataset.FilterName(version, tier)))
}

// Initialize loads the filter for tier and version and makes it current.
// An empty tier means tiny. version may be empty only with WithPath.
//
// A missing filter satisfies errors.Is(err, fs.ErrNotExist). A malformed one
// returns ErrCorruptFilter or ErrFormatUnsupported. On any error the
// previously loaded filter, if any, stays in place.
func (c *Checker) Initialize(ctx context.Context, tier, version string, opts ...InitOption) error {
	var ic initConfig
	for _, opt := range opts {
		opt(&ic)
	}
	if tier == "" {
		tier = string(aggregate.Tiny)
	}
	if _, err := aggregate.ParseTier(tier); err != nil {
		return err
	}
	if version == "" && ic.path == "" {
		return cperrors.ErrVersionRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, location, err := c.read(ctx, tier, version, ic.path)
	if err != nil {
		c.log.LogLoad(ctx, location, version, tier, 0, 0, err)
		return err
	}

	f, h, err := bloom.Decode(data)
	if err != nil {
		err = fmt.Errorf("decode %s: %w", location, err)
		c.log.LogLoad(ctx, location, version, tier, 0, 0, err)
		return err
	}

	reported := h.Version
	if reported == "" {
		reported = version
	}
	c.cur.Store(&loaded{
		filter: f,
		info: Info{
			Version:  reported,
			Tier:     tier,
			Location: location,
			Header:   h,
			LoadedAt: time.Now(),
		},
	})
	c.log.LogLoad(ctx, location, reported, tier, f.BitSize(), f.HashCount(), nil)
	return nil
}

func (c *Checker) read(ctx context.Context, tier, version, path string) ([]byte, string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, path, fmt.Errorf("read filter: %w", err)
		}
		return data, path, nil
	}
	name := dataset.FilterName(version, tier)
	location := blobstore.Locate(c.store, name)
	data, err := c.store.Get(ctx, name)
	if err != nil {
		return nil, location, fmt.Errorf("read filter %s: %w", location, err)
	}
	return data, location, nil
}

// IsCommon reports whether password is in the loaded dataset. With nothing
// loaded it returns a negative Result.
func (c *Checker) IsCommon(password string) Result {
	l := c.cur.Load()
	if l == nil {
		return Result{}
	}
	if !l.filter.Contains(normalize.Apply(c.mode, password)) {
		return Result{}
	}
	return Result{Common: true, Reason: ReasonBloomMatch, Version: l.info.Version}
}

// CurrentVersion returns the version of the loaded filter. ok is false when
// nothing is loaded.
func (c *Checker) CurrentVersion() (version string, ok bool) {
	l := c.cur.Load()
	if l == nil {
		return "", false
	}
	return l.info.Version, true
}

// Loaded describes the loaded filter. ok is false when nothing is loaded.
func (c *Checker) Loaded() (Info, bool) {
	l := c.cur.Load()
	if l == nil {
		return Info{}, false
	}
	return l.info, true
}
