// internal/directory/profile/slug.go
package profile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"visa-directory/internal/models"
)

const (
	DefaultBasePath = "/businesses"
	unknownLocation = "unknown"
)

// foldASCII decomposes text and drops combining marks so "Zürich" folds to "zurich".
func foldASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Slugify lower-cases s and collapses every run outside [a-z0-9] into one hyphen.
func Slugify(s string) string {
	folded := foldASCII(s)

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NormalizeName lower-cases s and strips everything that is not a letter or digit. It is
// the comparison key for legacy name links.
func NormalizeName(s string) string {
	folded := foldASCII(s)

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LocationSlug slugifies the first comma segment of the address.
func LocationSlug(b models.Business) string {
	first, _, _ := strings.Cut(b.Address, ",")
	if s := Slugify(first); s != "" {
		return s
	}
	return unknownLocation
}

// NameSlug falls back to the id when the name has no slug-safe characters.
func NameSlug(b models.Business) string {
	if s := Slugify(b.Name); s != "" {
		return s
	}
	if s := Slugify(b.ID); s != "" {
		return s
	}
	return "business"
}

// CanonicalSlug is locationSlug/nameSlug. It depends only on Address, Name and ID.
func CanonicalSlug(b models.Business) string {
	return LocationSlug(b) + "/" + NameSlug(b)
}

// CanonicalURL joins basePath and the canonical slug. A Resolver may disambiguate
// colliding slugs; prefer Resolver.CanonicalURL when a record set is at hand.
func CanonicalURL(basePath string, b models.Business) string {
	return joinURL(basePath, CanonicalSlug(b))
}

func joinURL(basePath, slug string) string {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return strings.TrimRight(basePath, "/") + "/" + slug
}
