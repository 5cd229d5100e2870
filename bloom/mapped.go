package bloom

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
	cperrors "github.com/tamirms/commonpass/errors"
)

// Mapped is a read-only filter backed by a memory-mapped .bf file.
//
// Thread Safety:
//   - Contains, Header and Filter are safe for concurrent use
//   - Close is NOT safe to call concurrently with queries
//   - After Close returns, no methods may be called except Close
type Mapped struct {
	mmap   mmap.MMap
	filter *Filter
	header Header
	closed atomic.Bool
}

// Open memory-maps the filter at path and validates it.
// The file descriptor is closed before Open returns.
func Open(path string) (*Mapped, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open filter file: %w", err)
	}
	defer file.Close()
	return OpenFile(file)
}

// OpenFile maps f read-only. The caller is responsible for closing f; it may
// be closed as soon as OpenFile returns.
func OpenFile(f *os.File) (*Mapped, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat filter file: %w", err)
	}
	if stat.Size() == 0 {
		return nil, fmt.Errorf("%w: empty file", cperrors.ErrCorruptFilter)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap filter file: %w", err)
	}

	filter, header, err := decode([]byte(mm), false)
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	adviseRandom([]byte(mm)) // whole mapping: madvise needs a page-aligned start

	return &Mapped{mmap: mm, filter: filter, header: header}, nil
}

// Contains reports whether value may be in the filter.
func (m *Mapped) Contains(value string) (bool, error) {
	if m.closed.Load() {
		return false, cperrors.ErrFilterClosed
	}
	return m.filter.Contains(value), nil
}

// Header returns the decoded header.
func (m *Mapped) Header() Header {
	return m.header
}

// Filter returns the mapped filter. It is valid until Close.
func (m *Mapped) Filter() *Filter {
	return m.filter
}

// Close unmaps the file.
func (m *Mapped) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	return m.mmap.Unmap()
}
