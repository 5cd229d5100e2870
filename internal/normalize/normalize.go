// Package normalize canonicalizes passwords before they are inserted into
// or looked up in a filter. Builder and runtime must apply the same rules:
// the filter cannot recover from a normalization mismatch.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Mode selects the runtime normalization rules.
type Mode uint8

const (
	// NFCTrim applies NFC composition and trims surrounding whitespace.
	// Filters are always built with this mode.
	NFCTrim Mode = iota
	// PreserveUnicode only trims surrounding whitespace.
	PreserveUnicode
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case NFCTrim:
		return "nfc_trim"
	case PreserveUnicode:
		return "preserve_unicode"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses a configuration name. The empty string means NFCTrim.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "nfc_trim":
		return NFCTrim, nil
	case "preserve_unicode":
		return PreserveUnicode, nil
	}
	return 0, fmt.Errorf("unknown normalization mode %q", s)
}

// String normalizes s with NFCTrim.
func String(s string) string {
	return Trim(norm.NFC.String(s))
}

// Apply normalizes s with the given mode.
func Apply(m Mode, s string) string {
	if m == PreserveUnicode {
		return Trim(s)
	}
	return String(s)
}

// Trim removes leading and trailing whitespace without composing.
func Trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// isSpace matches the whitespace set of the reference builder: Unicode
// White_Space plus the ASCII information separators U+001C..U+001F.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
