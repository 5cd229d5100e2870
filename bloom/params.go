package bloom

import (
	"math"

	cperrors "github.com/tamirms/commonpass/errors"
	intbits "github.com/tamirms/commonpass/internal/bits"
)

const (
	// MinBitSize is the smallest bit array OptimalParams returns.
	MinBitSize = 8192

	// DefaultHashCount is the probe count used when no items are expected.
	DefaultHashCount = 3
)

// Params are the two numbers that fix a filter's shape.
type Params struct {
	BitSize   uint64 // m, a multiple of 8
	HashCount uint32 // k
}

// OptimalParams derives filter parameters for n expected items at target
// false-positive rate fpr.
//
//	mRaw = ceil(-n·ln(fpr) / (ln 2)²)
//	k    = max(1, trunc(mRaw/n · ln 2))
//	m    = max(MinBitSize, roundUp8(mRaw))
//
// k is computed from mRaw before rounding and is truncated, not rounded.
// Independent builders depend on this exact arithmetic to produce identical
// filters. For n <= 0 the result is {MinBitSize, DefaultHashCount} and fpr is
// not inspected.
func OptimalParams(n int64, fpr float64) (Params, error) {
	if n <= 0 {
		return Params{BitSize: MinBitSize, HashCount: DefaultHashCount}, nil
	}
	if !(fpr > 0 && fpr < 1) {
		return Params{}, cperrors.ErrInvalidFPR
	}

	nf := float64(n)
	mRaw := math.Ceil(-(nf * math.Log(fpr)) / (math.Ln2 * math.Ln2))
	if mRaw >= 1<<62 {
		return Params{}, cperrors.ErrInvalidParams
	}

	k := uint32(max(1, math.Trunc(mRaw/nf*math.Ln2)))
	m := max(MinBitSize, intbits.RoundUp8(uint64(mRaw)))

	return Params{BitSize: m, HashCount: k}, nil
}
