package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tamirms/commonpass/blobstore"
	"github.com/tamirms/commonpass/bloom"
	"github.com/tamirms/commonpass/internal/aggregate"
)

// Manifest is the content of V/metadata.json.
type Manifest struct {
	Version   string          `json:"version"`
	Date      string          `json:"date"`
	CreatedAt string          `json:"created_at"`
	BuildID   string          `json:"build_id"`
	Locale    string          `json:"locale,omitempty"`
	FPR       bloom.FPR       `json:"fpr"`
	Sources   []string        `json:"sources"`
	Counts    Counts          `json:"counts"`
	Stats     aggregate.Stats `json:"stats"`
	Files     []FileInfo      `json:"files"`
	Bloom     BloomParams     `json:"bloom"` // tiny tier
}

// Counts is the number of entries per tier.
type Counts struct {
	Tiny   int `json:"tiny"`
	Small  int `json:"small"`
	Medium int `json:"medium"`
	Full   int `json:"full"`
}

// Get returns the count of tier t.
func (c Counts) Get(t aggregate.Tier) int {
	switch t {
	case aggregate.Tiny:
		return c.Tiny
	case aggregate.Small:
		return c.Small
	case aggregate.Medium:
		return c.Medium
	default:
		return c.Full
	}
}

func (c *Counts) set(t aggregate.Tier, n int) {
	switch t {
	case aggregate.Tiny:
		c.Tiny = n
	case aggregate.Small:
		c.Small = n
	case aggregate.Medium:
		c.Medium = n
	default:
		c.Full = n
	}
}

// FileInfo describes one written artifact. Name is relative to the version
// directory.
type FileInfo struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// BloomParams are the parameters a tier filter was built with.
type BloomParams struct {
	ExpectedN int64     `json:"expected_n"`
	FPR       bloom.FPR `json:"fpr"`
	HashCount uint32    `json:"hash_count"`
	BitSize   uint64    `json:"bit_size"`
	BitsXXH64 string    `json:"bits_xxh64,omitempty"`
}

// File returns the entry for a base name.
func (m *Manifest) File(name string) (FileInfo, bool) {
	for _, f := range m.Files {
		if f.Name == name {
			return f, true
		}
	}
	return FileInfo{}, false
}

// Encode renders the manifest as indented JSON with a trailing newline.
// Non-ASCII is written as-is.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadManifest loads V/metadata.json from store.
func ReadManifest(ctx context.Context, store blobstore.Store, version string) (*Manifest, error) {
	data, err := store.Get(ctx, ManifestName(version))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
