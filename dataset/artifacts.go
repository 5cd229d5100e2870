package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/tamirms/commonpass/bloom"
	"github.com/tamirms/commonpass/internal/aggregate"
)

// tierArtifacts holds the three encoded blobs of one tier.
type tierArtifacts struct {
	tier     aggregate.Tier
	count    int
	params   BloomParams
	checksum uint64
	txt      []byte
	bf       []byte
	jsonGz   []byte
}

type tierInput struct {
	tier      aggregate.Tier
	passwords []string
	version   string
	locale    string
	fpr       float64
	createdAt time.Time
}

// buildTier builds the filter for one tier and encodes every artifact.
func buildTier(in tierInput) (*tierArtifacts, error) {
	n := int64(max(1, len(in.passwords)))
	p, err := bloom.OptimalParams(n, in.fpr)
	if err != nil {
		return nil, err
	}
	f, err := bloom.NewWithParams(p)
	if err != nil {
		return nil, err
	}
	for _, pw := range in.passwords {
		f.Add(pw)
	}

	bf, err := f.Encode(bloom.Meta{
		ExpectedN: n,
		FPR:       in.fpr,
		Version:   in.version,
		Tier:      string(in.tier),
		Locale:    in.locale,
		CreatedAt: in.createdAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s filter: %w", in.tier, err)
	}

	a := &tierArtifacts{
		tier:     in.tier,
		count:    len(in.passwords),
		checksum: f.Checksum(),
		params: BloomParams{
			ExpectedN: n,
			FPR:       bloom.FPR(in.fpr),
			HashCount: p.HashCount,
			BitSize:   p.BitSize,
		},
		txt: encodeText(in.passwords),
		bf:  bf,
	}

	a.jsonGz, err = encodeJSONGz(jsonCopy{
		Meta: jsonMeta{
			Version:     in.version,
			Tier:        string(in.tier),
			Count:       len(in.passwords),
			BloomParams: a.params,
			SHA256BF:    sha256Hex(bf),
			Locale:      in.locale,
			CreatedAt:   in.createdAt.UTC().Format(bloom.TimeLayout),
			Files: map[string]string{
				BaseName(string(in.tier), ".txt"): sha256Hex(a.txt),
				BaseName(string(in.tier), ".bf"):  sha256Hex(bf),
			},
		},
		Data: in.passwords,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s json copy: %w", in.tier, err)
	}
	return a, nil
}

// encodeText joins passwords with '\n' plus a trailing '\n'. No entries
// give an empty file.
func encodeText(passwords []string) []byte {
	if len(passwords) == 0 {
		return []byte{}
	}
	var b strings.Builder
	for _, pw := range passwords {
		b.WriteString(pw)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

type jsonCopy struct {
	Meta jsonMeta `json:"meta"`
	Data []string `json:"data"`
}

type jsonMeta struct {
	Version     string            `json:"version"`
	Tier        string            `json:"tier"`
	Count       int               `json:"count"`
	BloomParams BloomParams       `json:"bloom_params"`
	SHA256BF    string            `json:"sha256_bf"`
	Locale      string            `json:"locale,omitempty"`
	CreatedAt   string            `json:"created_at"`
	Files       map[string]string `json:"files"`
}

// encodeJSONGz writes v as compact JSON into a gzip stream with no name
// and a zero modification time, so the output depends only on v.
func encodeJSONGz(v jsonCopy) ([]byte, error) {
	if v.Data == nil {
		v.Data = []string{}
	}
	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	body := bytes.TrimSuffix(raw.Bytes(), []byte{'\n'})

	var out bytes.Buffer
	zw, err := gzip.NewWriterLevel(&out, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
