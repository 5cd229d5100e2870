// Package bits provides low-level bit manipulation primitives.
package bits

import (
	"encoding/binary"
	"math/bits"
)

// BytesFor returns ceil(nbits/8).
func BytesFor(nbits uint64) uint64 {
	return (nbits + 7) / 8
}

// RoundUp8 rounds n up to the next multiple of 8.
func RoundUp8(n uint64) uint64 {
	return (n + 7) / 8 * 8
}

// SetMSB0 sets bit idx of b, where bit 0 is the most-significant bit of b[0].
func SetMSB0(b []byte, idx uint64) {
	b[idx>>3] |= 0x80 >> (idx & 7)
}

// TestMSB0 reports whether bit idx of b is set, using the SetMSB0 numbering.
func TestMSB0(b []byte, idx uint64) bool {
	return b[idx>>3]&(0x80>>(idx&7)) != 0
}

// Mod256 returns digest mod m, treating digest as a 256-bit big-endian
// unsigned integer. m must be non-zero.
//
// The reduction folds one 64-bit word at a time: rem = (rem·2^64 + w) mod m.
// Since rem < m, bits.Rem64 never sees an overflowing quotient.
func Mod256(digest *[32]byte, m uint64) uint64 {
	var rem uint64
	for off := 0; off < 32; off += 8 {
		w := binary.BigEndian.Uint64(digest[off : off+8])
		rem = bits.Rem64(rem, w, m)
	}
	return rem
}

// AddMod returns (a + b) mod m for a, b < m.
func AddMod(a, b, m uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 || s >= m {
		s -= m
	}
	return s
}
