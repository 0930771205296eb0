// internal/directory/category/matcher.go
package category

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"visa-directory/internal/models"
)

// fold prepares text for case-insensitive substring tests. NFKC keeps full-width and
// compatibility forms from defeating a match.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToLower(norm.NFKC.String(s))
}

// Matches reports whether any keyword occurs in the business category, name or address.
// Each field is tested on its own; an empty field never matches and empty keywords are ignored.
func Matches(b models.Business, keywords []string) bool {
	fields := [...]string{fold(b.Category), fold(b.Name), fold(b.Address)}
	for _, kw := range keywords {
		k := fold(kw)
		if k == "" {
			continue
		}
		for _, f := range fields {
			if f != "" && strings.Contains(f, k) {
				return true
			}
		}
	}
	return false
}

// ClassifyAll groups businesses by bucket. Every bucket key is present in the result, and
// each bucket keeps the input order. A business may land in several buckets.
func ClassifyAll(bs []models.Business, buckets map[string][]string) map[string][]models.Business {
	out := make(map[string][]models.Business, len(buckets))
	for key, keywords := range buckets {
		members := make([]models.Business, 0)
		for _, b := range bs {
			if Matches(b, keywords) {
				members = append(members, b)
			}
		}
		out[key] = members
	}
	return out
}

// Tags returns the sorted bucket keys a business belongs to.
func Tags(b models.Business, buckets map[string][]string) []string {
	tags := make([]string, 0)
	for key, keywords := range buckets {
		if Matches(b, keywords) {
			tags = append(tags, key)
		}
	}
	sort.Strings(tags)
	return tags
}

// Counts returns the membership size of every bucket.
func Counts(bs []models.Business, buckets map[string][]string) map[string]int {
	grouped := ClassifyAll(bs, buckets)
	counts := make(map[string]int, len(grouped))
	for key, members := range grouped {
		counts[key] = len(members)
	}
	return counts
}
