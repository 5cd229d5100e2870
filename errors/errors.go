// Package errors defines all exported error sentinels for the commonpass module.
//
// This is the single source of truth for error values. The root commonpass
// package, the bloom and dataset packages, and the internal packages all
// import from here, so errors.Is checks work across package boundaries.
package errors

import "errors"

// Filter format errors
var (
	ErrCorruptFilter     = errors.New("commonpass: filter data is corrupted")
	ErrFormatUnsupported = errors.New("commonpass: unsupported filter format")
	ErrFilterClosed      = errors.New("commonpass: filter is closed")
)

// Construction errors
var (
	ErrInvalidParams = errors.New("commonpass: bit size must be a positive multiple of 8 and hash count at least 1")
	ErrInvalidFPR    = errors.New("commonpass: false-positive rate must be in (0, 1)")
)

// Dataset errors
var (
	ErrInvalidEncoding = errors.New("commonpass: source is not valid UTF-8")
	ErrInvalidVersion  = errors.New("commonpass: dataset version must look like vYYYYMMDD.N")
	ErrInvalidLocale   = errors.New("commonpass: invalid locale tag")
	ErrUnknownTier     = errors.New("commonpass: unknown tier")
	ErrNoSources       = errors.New("commonpass: at least one source is required")
)

// Checker errors
var (
	ErrVersionRequired = errors.New("commonpass: dataset version is required when no path is given")
)
