// internal/directory/category/buckets.go
package category

// DefaultBuckets are the navigation buckets shipped with the directory. Keywords are
// deliberately broad since source category labels are free text.
var DefaultBuckets = map[string][]string{
	"work-visa":         {"work visa", "work permit", "employment", "labour", "labor", "recruitment", "manpower"},
	"student-visa":      {"student", "study", "education", "university", "college"},
	"tourist-visa":      {"tourist", "tourism", "travel", "visit visa", "holiday"},
	"family-visa":       {"family", "spouse", "dependent", "dependant", "marriage"},
	"golden-visa":       {"golden visa", "investor", "residency", "residence"},
	"business-setup":    {"business setup", "company formation", "pro services", "trade license", "free zone", "freezone"},
	"immigration-law":   {"immigration lawyer", "legal", "law firm", "advocate", "attorney"},
	"document-services": {"attestation", "translation", "typing", "document clearing", "notary"},
	"visa-consultant":   {"visa consultant", "visa services", "immigration consultant", "visa agency", "consultancy"},
}

// CloneBuckets returns a deep copy so callers can merge overrides safely.
func CloneBuckets(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
