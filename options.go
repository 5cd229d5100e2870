package commonpass

import (
	"log/slog"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/internal/normalize"
)

// DefaultRoot is the dataset directory used when neither WithRoot nor
// WithStore is given.
const DefaultRoot = "datasets"

// Option configures a Checker.
type Option func(*checkerConfig)

type checkerConfig struct {
	root   string
	store  blobstore.Store
	mode   normalize.Mode
	logger *slog.Logger
}

// WithRoot reads filters from a local dataset directory laid out as
// root/V/common_T.bf.
func WithRoot(dir string) Option {
	return func(c *checkerConfig) {
		c.root = dir
		c.store = nil
	}
}

// WithStore reads filters from store, using names V/common_T.bf.
func WithStore(store blobstore.Store) Option {
	return func(c *checkerConfig) {
		c.store = store
	}
}

// WithNormalization selects how IsCommon normalizes its input. Filters are
// always built with normalize.NFCTrim; PreserveUnicode only makes sense
// when callers already hand in NFC text.
func WithNormalization(mode normalize.Mode) Option {
	return func(c *checkerConfig) {
		c.mode = mode
	}
}

// WithLogger sets the logger for filter loads. Nil disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *checkerConfig) {
		c.logger = l
	}
}

// InitOption configures one Initialize call.
type InitOption func(*initConfig)

type initConfig struct {
	path string
}

// WithPath loads the filter from a local file instead of the store.
func WithPath(path string) InitOption {
	return func(c *initConfig) {
		c.path = path
	}
}
