package bloom

import (
	"bytes"
	"crypto/sha256"
	"math/bits"

	"github.com/cespare/xxhash/v2"
	cperrors "github.com/tamirms/commonpass/errors"
	intbits "github.com/tamirms/commonpass/internal/bits"
)

// Filter is a Bloom filter over strings.
//
// Thread Safety:
//   - Contains and the accessors are safe for concurrent use
//   - Add is not safe for concurrent use with any other method
//   - A filter returned by Decode or Open is never modified by this package
type Filter struct {
	bitSize   uint64
	hashCount uint32
	bits      []byte
}

// New allocates an empty filter. bitSize must be a positive multiple of 8 and
// hashCount at least 1.
func New(bitSize uint64, hashCount uint32) (*Filter, error) {
	if bitSize == 0 || bitSize%8 != 0 || hashCount == 0 {
		return nil, cperrors.ErrInvalidParams
	}
	return &Filter{
		bitSize:   bitSize,
		hashCount: hashCount,
		bits:      make([]byte, intbits.BytesFor(bitSize)),
	}, nil
}

// NewWithParams allocates an empty filter shaped by p.
func NewWithParams(p Params) (*Filter, error) {
	return New(p.BitSize, p.HashCount)
}

// Add inserts value. Bits are only ever set, never cleared.
func (f *Filter) Add(value string) {
	idx, step := f.locate(value)
	for i := uint32(0); i < f.hashCount; i++ {
		intbits.SetMSB0(f.bits, idx)
		idx = intbits.AddMod(idx, step, f.bitSize)
	}
}

// Contains reports whether every probe bit for value is set. A false result
// is definite; a true result may be a false positive.
func (f *Filter) Contains(value string) bool {
	idx, step := f.locate(value)
	for i := uint32(0); i < f.hashCount; i++ {
		if !intbits.TestMSB0(f.bits, idx) {
			return false
		}
		idx = intbits.AddMod(idx, step, f.bitSize)
	}
	return true
}

// Probes returns the k bit indexes value maps to, in probe order.
func (f *Filter) Probes(value string) []uint64 {
	out := make([]uint64, f.hashCount)
	idx, step := f.locate(value)
	for i := range out {
		out[i] = idx
		idx = intbits.AddMod(idx, step, f.bitSize)
	}
	return out
}

// locate returns h1 mod m and h2 mod m. Probe i is then
// (h1 + i·h2) mod m = (h1 mod m + i·(h2 mod m)) mod m.
func (f *Filter) locate(value string) (idx, step uint64) {
	buf := make([]byte, len(value)+1)
	copy(buf, value)

	buf[len(value)] = 0x00
	d1 := sha256.Sum256(buf)
	buf[len(value)] = 0x01
	d2 := sha256.Sum256(buf)

	return intbits.Mod256(&d1, f.bitSize), intbits.Mod256(&d2, f.bitSize)
}

// BitSize returns m.
func (f *Filter) BitSize() uint64 {
	return f.bitSize
}

// HashCount returns k.
func (f *Filter) HashCount() uint32 {
	return f.hashCount
}

// Params returns the filter's shape.
func (f *Filter) Params() Params {
	return Params{BitSize: f.bitSize, HashCount: f.hashCount}
}

// Bits returns the underlying bit array. The caller must not modify it.
func (f *Filter) Bits() []byte {
	return f.bits
}

// PopCount returns the number of set bits.
func (f *Filter) PopCount() uint64 {
	var n uint64
	for _, b := range f.bits {
		n += uint64(bits.OnesCount8(b))
	}
	return n
}

// Checksum returns the xxHash64 of the bit array. Equal filters have equal
// checksums, which makes it a cheap first comparison between builds.
func (f *Filter) Checksum() uint64 {
	return xxhash.Sum64(f.bits)
}

// Equal reports whether f and other have the same shape and bits.
func (f *Filter) Equal(other *Filter) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.bitSize == other.bitSize &&
		f.hashCount == other.hashCount &&
		bytes.Equal(f.bits, other.bits)
}
