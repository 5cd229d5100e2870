package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
// It is os.ErrNotExist, so fs.ErrNotExist checks work as well.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for names that are empty, absolute, or escape
// the store root.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// CheckName rejects names that are empty, absolute, or climb above the
// store root once cleaned ("../x", "a/../../b"). Every backend applies it,
// so a name valid for one store is valid for all.
func CheckName(name string) error {
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Store reads and writes whole blobs. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the full contents of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob atomically, replacing any previous contents.
	Put(ctx context.Context, name string, data []byte) error
	// List returns the sorted names of all blobs under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Locator is implemented by stores that can describe where a blob lives,
// for logs and diagnostics.
type Locator interface {
	Locate(name string) string
}

// Locate returns where name lives in s, or name itself when s is not a
// Locator.
func Locate(s Store, name string) string {
	if l, ok := s.(Locator); ok {
		return l.Locate(name)
	}
	return name
}
