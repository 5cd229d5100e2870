// Package aggregate turns raw password lists into a deduplicated,
// deterministically ranked entry list.
//
// A source is UTF-8 text with one record per line. A record is either a bare
// password (count 1) or "password,count"; the split is on the first comma.
// Records whose count is not an integer are skipped and counted in
// Stats.Malformed. Invalid UTF-8 is fatal for the whole source.
package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	cperrors "github.com/tamirms/commonpass/errors"
	"github.com/tamirms/commonpass/internal/normalize"
)

const (
	// maxLineSize bounds a single record. Lines beyond it fail the source.
	maxLineSize = 16 << 20

	// ctxCheckInterval is how many lines are read between context checks.
	ctxCheckInterval = 10000
)

// Source is one named input stream. Name is used in errors and recorded in
// the dataset manifest.
type Source struct {
	Name   string
	Reader io.Reader
}

// Outcome classifies a parsed line.
type Outcome uint8

const (
	// Accepted records contribute to the counts.
	Accepted Outcome = iota
	// Blank lines are ignored silently.
	Blank
	// Empty records normalize to the empty string and are skipped.
	Empty
	// Malformed records carry a count that is not an integer.
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Blank:
		return "blank"
	case Empty:
		return "empty"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Record is the parse result of one line.
type Record struct {
	Password string // normalized
	Count    int64  // never negative
	Outcome  Outcome
}

// ParseLine parses one line without its terminator.
//
// Negative counts are clamped to zero: the password still becomes an entry,
// it just gains no weight.
func ParseLine(line string) Record {
	if line == "" {
		return Record{Outcome: Blank}
	}
	pw, cnt, explicit := strings.Cut(line, ",")
	count := int64(1)
	if explicit {
		c, ok := parseCount(cnt)
		if !ok {
			return Record{Outcome: Malformed}
		}
		count = max(0, c)
	}
	pw = normalize.String(pw)
	if pw == "" {
		return Record{Outcome: Empty}
	}
	return Record{Password: pw, Count: count, Outcome: Accepted}
}

// parseCount accepts an optionally signed decimal integer surrounded by
// whitespace, with single underscores allowed between digits. Digits may
// come from any Unicode decimal script ("\u0663" is 3). Values past the
// int64 range saturate.
func parseCount(s string) (int64, bool) {
	s = normalize.Trim(s)
	if strings.Contains(s, "_") {
		digits := strings.TrimLeft(s, "+-")
		if strings.HasPrefix(digits, "_") || strings.HasSuffix(digits, "_") || strings.Contains(digits, "__") {
			return 0, false
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	s = asciiDigits(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return n, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}

// asciiDigits rewrites non-ASCII decimal digits to their ASCII values and
// leaves every other rune alone.
func asciiDigits(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return strings.Map(func(r rune) rune {
				if r < utf8.RuneSelf {
					return r
				}
				if d, ok := decimalValue(r); ok {
					return '0' + d
				}
				return r
			}, s)
		}
	}
	return s
}

// decimalValue reports the value of a Unicode decimal digit. Each script's
// digits occupy a contiguous run starting at zero, so the table ranges in
// unicode.Nd all begin on a zero.
func decimalValue(r rune) (rune, bool) {
	if !unicode.IsDigit(r) {
		return 0, false
	}
	for _, rg := range unicode.Nd.R16 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return (r - lo) % 10, true
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if lo, hi := rune(rg.Lo), rune(rg.Hi); r >= lo && r <= hi {
			return (r - lo) % 10, true
		}
	}
	return 0, false
}

// Stats counts what happened to the lines read so far.
type Stats struct {
	Sources   int   `json:"sources"`
	Lines     int64 `json:"lines"`
	Accepted  int64 `json:"accepted"`
	Blank     int64 `json:"blank"`
	Empty     int64 `json:"empty"`
	Malformed int64 `json:"malformed"`
	Distinct  int   `json:"distinct"`
}

func (s *Stats) record(o Outcome) {
	s.Lines++
	switch o {
	case Accepted:
		s.Accepted++
	case Blank:
		s.Blank++
	case Empty:
		s.Empty++
	case Malformed:
		s.Malformed++
	}
}

// Aggregator accumulates counts across sources. It is not safe for
// concurrent use.
type Aggregator struct {
	counts  map[string]int64
	sources []string
	stats   Stats
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{counts: make(map[string]int64)}
}

// Add reads src to the end and merges its counts. A source that fails
// (invalid UTF-8, read error, cancellation) contributes nothing.
func (a *Aggregator) Add(ctx context.Context, src Source) error {
	local := make(map[string]int64)
	var st Stats

	sc := bufio.NewScanner(src.Reader)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	sc.Split(scanLines)

	var lineNo int64
	for sc.Scan() {
		lineNo++
		if lineNo%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("aggregate %s: %w", src.Name, err)
			}
		}
		line := sc.Bytes()
		if !utf8.Valid(line) {
			return fmt.Errorf("%w: %s line %d", cperrors.ErrInvalidEncoding, src.Name, lineNo)
		}
		rec := ParseLine(string(line))
		st.record(rec.Outcome)
		if rec.Outcome == Accepted {
			local[rec.Password] = addSat(local[rec.Password], rec.Count)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", src.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("aggregate %s: %w", src.Name, err)
	}

	for pw, c := range local {
		a.counts[pw] = addSat(a.counts[pw], c)
	}
	a.sources = append(a.sources, src.Name)
	a.stats.Sources++
	a.stats.Lines += st.Lines
	a.stats.Accepted += st.Accepted
	a.stats.Blank += st.Blank
	a.stats.Empty += st.Empty
	a.stats.Malformed += st.Malformed
	a.stats.Distinct = len(a.counts)
	return nil
}

// Count returns the accumulated count of a normalized password.
func (a *Aggregator) Count(password string) (int64, bool) {
	c, ok := a.counts[password]
	return c, ok
}

// Len returns the number of distinct passwords.
func (a *Aggregator) Len() int {
	return len(a.counts)
}

// Sources returns the names of the sources added, in order.
func (a *Aggregator) Sources() []string {
	return append([]string(nil), a.sources...)
}

// Stats returns the counters accumulated so far.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Aggregate reads every source into a new Aggregator, stopping at the first
// failure.
func Aggregate(ctx context.Context, sources ...Source) (*Aggregator, error) {
	if len(sources) == 0 {
		return nil, cperrors.ErrNoSources
	}
	a := New()
	for _, src := range sources {
		if err := a.Add(ctx, src); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func addSat(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// scanLines splits on "\n", "\r\n" and a lone "\r". A final line without a
// terminator is returned as well.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			return 0, nil, nil // need one more byte to tell "\r" from "\r\n"
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
