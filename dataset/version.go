package dataset

import (
	"fmt"
	"path"
	"regexp"
	"time"

	"golang.org/x/text/language"

	cperrors "github.com/tamirms/commonpass/errors"
)

var versionRE = regexp.MustCompile(`^v?([0-9]{8})\.([0-9]+)$`)

// DefaultVersion returns "v" + the UTC date of now + ".1".
func DefaultVersion(now time.Time) string {
	return "v" + now.UTC().Format("20060102") + ".1"
}

// ValidateVersion checks that v looks like vYYYYMMDD.N with a real calendar
// date. The leading "v" is optional.
func ValidateVersion(v string) error {
	m := versionRE.FindStringSubmatch(v)
	if m == nil {
		return fmt.Errorf("%w: %q", cperrors.ErrInvalidVersion, v)
	}
	if _, err := time.Parse("20060102", m[1]); err != nil {
		return fmt.Errorf("%w: %q: bad date", cperrors.ErrInvalidVersion, v)
	}
	return nil
}

// CanonicalLocale returns the canonical form of a BCP 47 tag. The empty
// string stays empty.
func CanonicalLocale(tag string) (string, error) {
	if tag == "" {
		return "", nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", cperrors.ErrInvalidLocale, tag, err)
	}
	return t.String(), nil
}

// BaseName returns the artifact base name for a tier: "common_" + tier +
// ext.
func BaseName(tier, ext string) string {
	return "common_" + tier + ext
}

// FilterName returns the store name of a tier filter: V/common_T.bf.
func FilterName(version, tier string) string {
	return path.Join(version, BaseName(tier, ".bf"))
}

// ManifestName returns the store name of a version's manifest.
func ManifestName(version string) string {
	return path.Join(version, "metadata.json")
}
