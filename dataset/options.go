package dataset

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultFPR is the target false-positive rate when WithFPR is not given.
const DefaultFPR = 0.01

// Option is a functional option for configuring a Builder.
type Option func(*buildConfig)

type buildConfig struct {
	fpr     float64
	version string // empty: DefaultVersion at build time
	locale  string
	clock   func() time.Time
	workers int
	buildID uuid.UUID // zero: random per build
	logger  *slog.Logger
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		fpr:     DefaultFPR,
		clock:   time.Now,
		workers: 1,
	}
}

// WithFPR sets the target false-positive rate of every tier filter.
func WithFPR(fpr float64) Option {
	return func(c *buildConfig) {
		c.fpr = fpr
	}
}

// WithVersion sets the dataset version. It must satisfy ValidateVersion.
func WithVersion(v string) Option {
	return func(c *buildConfig) {
		c.version = v
	}
}

// WithLocale records a BCP 47 locale tag in headers and the manifest. The
// tag is stored in canonical form ("en_us" becomes "en-US").
func WithLocale(tag string) Option {
	return func(c *buildConfig) {
		c.locale = tag
	}
}

// WithClock sets the time source for created_at and the default version.
// Fixing it makes every artifact reproducible.
func WithClock(now func() time.Time) Option {
	return func(c *buildConfig) {
		c.clock = now
	}
}

// WithWorkers sets how many tier filters are built concurrently. Output does
// not depend on the worker count.
func WithWorkers(n int) Option {
	return func(c *buildConfig) {
		c.workers = n
	}
}

// WithBuildID fixes the manifest build ID instead of generating one.
func WithBuildID(id uuid.UUID) Option {
	return func(c *buildConfig) {
		c.buildID = id
	}
}

// WithLogger sets the logger for build progress. Nil disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *buildConfig) {
		c.logger = l
	}
}
