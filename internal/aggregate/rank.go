package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	cperrors "github.com/tamirms/commonpass/errors"
)

// Entry is a ranked password.
type Entry struct {
	Password string
	Count    int64
	Rank     int // 1-based
}

// Rank returns every distinct password ordered by count descending, ties
// broken by byte order of the normalized password. For valid UTF-8 byte
// order is code point order, so the result is the same in any language.
func (a *Aggregator) Rank() []Entry {
	entries := make([]Entry, 0, len(a.counts))
	for pw, c := range a.counts {
		entries = append(entries, Entry{Password: pw, Count: c})
	}
	slices.SortFunc(entries, func(x, y Entry) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Password, y.Password)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Passwords returns the passwords of entries in order.
func Passwords(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Password
	}
	return out
}

// Tier names a prefix of the ranked entry list.
type Tier string

const (
	Tiny   Tier = "tiny"
	Small  Tier = "small"
	Medium Tier = "medium"
	Full   Tier = "full"
)

// Tiers lists every tier from smallest to largest.
func Tiers() []Tier {
	return []Tier{Tiny, Small, Medium, Full}
}

// ParseTier returns the tier named s.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case Tiny, Small, Medium, Full:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", cperrors.ErrUnknownTier, s)
}

// Limit returns the maximum number of entries in the tier, or -1 for Full.
func (t Tier) Limit() int {
	switch t {
	case Tiny:
		return 1000
	case Small:
		return 10000
	case Medium:
		return 100000
	default:
		return -1
	}
}

// Take returns the tier's prefix of ranked. The result aliases ranked.
func (t Tier) Take(ranked []Entry) []Entry {
	if l := t.Limit(); l >= 0 && l < len(ranked) {
		return ranked[:l:l]
	}
	return ranked
}

// TierEntries is one tier and its entries.
type TierEntries struct {
	Tier    Tier
	Entries []Entry
}

// Split returns every tier's prefix of ranked, smallest first. The tiers
// nest: each is a prefix of the next.
func Split(ranked []Entry) []TierEntries {
	tiers := Tiers()
	out := make([]TierEntries, len(tiers))
	for i, t := range tiers {
		out[i] = TierEntries{Tier: t, Entries: t.Take(ranked)}
	}
	return out
}
