// internal/models/business.go
package models

// Business is one listed visa/immigration service provider. Records are read-only to
// the directory core; Rating and ReviewCount are display attributes only.
type Business struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Category       string   `json:"category"`
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	Email          string   `json:"email,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	ReviewCount    int      `json:"reviewCount"`
	ReportCount    int      `json:"reportCount"`
	BusinessStatus string   `json:"businessStatus,omitempty"`
	LogoURL        string   `json:"logoUrl,omitempty"`
	Photos         []string `json:"photos,omitempty"`
}

// RatingValue returns the rating, treating a missing one as 0.
func (b Business) RatingValue() float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

// Float64 is a small helper for building optional ratings in fixtures and adapters.
func Float64(v float64) *float64 {
	return &v
}
