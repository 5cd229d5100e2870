package bloom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	cperrors "github.com/tamirms/commonpass/errors"
	intbits "github.com/tamirms/commonpass/internal/bits"
)

const (
	// FormatV1 is the format tag written by this package and the only one
	// Decode accepts.
	FormatV1 = "commonpass-bloom-v1"

	// HashSHA256 names the probe derivation described in the package doc.
	HashSHA256 = "sha256"

	// TimeLayout is the created_at layout: UTC, second precision.
	TimeLayout = "2006-01-02T15:04:05Z"
)

// Header is the metadata line of a serialized filter. Field order is the
// on-disk key order.
type Header struct {
	Format    string `json:"format"`
	BitSize   uint64 `json:"bit_size"`
	HashCount uint32 `json:"hash_count"`
	HashAlgo  string `json:"hash_algo"`
	ExpectedN int64  `json:"expected_n"`
	FPR       FPR    `json:"fpr"`
	Version   string `json:"version"`
	Tier      string `json:"tier"`
	Locale    string `json:"locale,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreatedTime parses CreatedAt. ok is false when the header carries no
// timestamp.
func (h Header) CreatedTime() (t time.Time, ok bool, err error) {
	if h.CreatedAt == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(TimeLayout, h.CreatedAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse created_at: %w", err)
	}
	return t, true, nil
}

// Meta is the builder-supplied part of a Header.
type Meta struct {
	ExpectedN int64
	FPR       float64
	Version   string
	Tier      string
	Locale    string
	CreatedAt time.Time // zero means no created_at key
}

// FPR is a false-positive rate. It marshals as the shortest decimal that
// round-trips, switching to exponent form below 1e-4 ("0.01", "1e-05"), so
// headers are byte-identical to those of other builders.
type FPR float64

// MarshalJSON implements json.Marshaler.
func (p FPR) MarshalJSON() ([]byte, error) {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("bloom: fpr %v is not finite", f)
	}
	if f == 0 {
		return []byte("0.0"), nil
	}
	sci := strconv.AppendFloat(nil, f, 'e', -1, 64)
	exp, err := strconv.Atoi(string(sci[bytes.IndexByte(sci, 'e')+1:]))
	if err != nil {
		return nil, fmt.Errorf("bloom: format fpr: %w", err)
	}
	if exp < -4 || exp >= 16 {
		return sci, nil
	}
	b := strconv.AppendFloat(nil, f, 'f', -1, 64)
	if bytes.IndexByte(b, '.') < 0 {
		b = append(b, '.', '0')
	}
	return b, nil
}

// Header returns the header Encode would write for f and meta.
func (f *Filter) Header(meta Meta) Header {
	h := Header{
		Format:    FormatV1,
		BitSize:   f.bitSize,
		HashCount: f.hashCount,
		HashAlgo:  HashSHA256,
		ExpectedN: meta.ExpectedN,
		FPR:       FPR(meta.FPR),
		Version:   meta.Version,
		Tier:      meta.Tier,
		Locale:    meta.Locale,
	}
	if !meta.CreatedAt.IsZero() {
		h.CreatedAt = meta.CreatedAt.UTC().Format(TimeLayout)
	}
	return h
}

// Encode serializes f: the header as one line of compact JSON, '\n', then
// the bit array.
func (f *Filter) Encode(meta Meta) ([]byte, error) {
	line, err := encodeHeaderLine(f.Header(meta))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(line)+len(f.bits))
	out = append(out, line...)
	return append(out, f.bits...), nil
}

// WriteTo streams the Encode output to w.
func (f *Filter) WriteTo(w io.Writer, meta Meta) (int64, error) {
	line, err := encodeHeaderLine(f.Header(meta))
	if err != nil {
		return 0, err
	}
	n, err := w.Write(line)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(f.bits)
	return int64(n + m), err
}

// encodeHeaderLine returns the JSON header followed by '\n'. Non-ASCII
// characters are written as \u escapes so the line is pure ASCII.
func encodeHeaderLine(h Header) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(h); err != nil { // Encode appends the '\n'
		return nil, fmt.Errorf("encode header: %w", err)
	}
	return escapeNonASCII(buf.Bytes()), nil
}

func escapeNonASCII(b []byte) []byte {
	if !hasNonASCII(b) {
		return b
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 0, len(b)+16)
	appendU := func(r rune) {
		out = append(out, '\\', 'u', hex[r>>12&0xF], hex[r>>8&0xF], hex[r>>4&0xF], hex[r&0xF])
	}
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		switch {
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case r > 0xFFFF:
			r -= 0x10000
			appendU(0xD800 + (r>>10)&0x3FF)
			appendU(0xDC00 + r&0x3FF)
		default:
			appendU(r)
		}
	}
	return out
}

func hasNonASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// Decode parses a serialized filter. The returned filter owns a copy of the
// bits, so data may be reused afterwards.
//
// Errors:
//   - ErrCorruptFilter: no header line, header is not JSON, bit_size or
//     hash_count missing or non-positive, or the bit array length is not
//     ceil(bit_size/8)
//   - ErrFormatUnsupported: format or hash_algo differs from FormatV1/HashSHA256
func Decode(data []byte) (*Filter, Header, error) {
	return decode(data, true)
}

func decode(data []byte, copyBits bool) (*Filter, Header, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, Header{}, fmt.Errorf("%w: no header line", cperrors.ErrCorruptFilter)
	}

	h, err := decodeHeader(data[:nl])
	if err != nil {
		return nil, Header{}, err
	}

	bits := data[nl+1:]
	if want := intbits.BytesFor(h.BitSize); uint64(len(bits)) != want {
		return nil, Header{}, fmt.Errorf("%w: bit array is %d bytes, bit_size %d needs %d",
			cperrors.ErrCorruptFilter, len(bits), h.BitSize, want)
	}
	if copyBits {
		bits = bytes.Clone(bits)
	}

	return &Filter{bitSize: h.BitSize, hashCount: h.HashCount, bits: bits}, h, nil
}

// decodeHeader looks keys up by exact name. encoding/json would match
// struct fields case-insensitively, accepting "BIT_SIZE" for "bit_size".
func decodeHeader(line []byte) (Header, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", cperrors.ErrCorruptFilter, err)
	}
	if fields == nil {
		return Header{}, fmt.Errorf("%w: header is not an object", cperrors.ErrCorruptFilter)
	}

	var h Header
	var format, hashAlgo *string
	var bitSize, hashCount *int64
	var fpr float64
	for _, f := range []struct {
		key string
		dst any
	}{
		{"format", &format},
		{"bit_size", &bitSize},
		{"hash_count", &hashCount},
		{"hash_algo", &hashAlgo},
		{"expected_n", &h.ExpectedN},
		{"fpr", &fpr},
		{"version", &h.Version},
		{"tier", &h.Tier},
		{"locale", &h.Locale},
		{"created_at", &h.CreatedAt},
	} {
		raw, ok := fields[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return Header{}, fmt.Errorf("%w: header %s: %v", cperrors.ErrCorruptFilter, f.key, err)
		}
	}

	if format == nil || *format != FormatV1 {
		got := "<missing>"
		if format != nil {
			got = strconv.Quote(*format)
		}
		return Header{}, fmt.Errorf("%w: format %s, want %q", cperrors.ErrFormatUnsupported, got, FormatV1)
	}
	// Filters without hash_algo predate the SHA-256 probe scheme.
	if hashAlgo == nil || *hashAlgo != HashSHA256 {
		got := "<missing>"
		if hashAlgo != nil {
			got = strconv.Quote(*hashAlgo)
		}
		return Header{}, fmt.Errorf("%w: hash_algo %s, want %q", cperrors.ErrFormatUnsupported, got, HashSHA256)
	}

	if bitSize == nil || *bitSize <= 0 {
		return Header{}, fmt.Errorf("%w: bit_size missing or not positive", cperrors.ErrCorruptFilter)
	}
	if hashCount == nil || *hashCount <= 0 || *hashCount > math.MaxUint32 {
		return Header{}, fmt.Errorf("%w: hash_count missing or out of range", cperrors.ErrCorruptFilter)
	}

	h.Format = *format
	h.BitSize = uint64(*bitSize)
	h.HashCount = uint32(*hashCount)
	h.HashAlgo = *hashAlgo
	h.FPR = FPR(fpr)
	return h, nil
}
