// internal/models/query.go
package models

type SortField string

const (
	SortByName    SortField = "name"
	SortByRating  SortField = "rating"
	SortByReviews SortField = "reviews"
	SortByReports SortField = "reports"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

// Query is the per-interaction search request. It is never persisted.
type Query struct {
	SearchTerm     string    `json:"searchTerm"`
	CategoryFilter string    `json:"categoryFilter"`
	MinRating      float64   `json:"minRating"`
	SortBy         SortField `json:"sortBy"`
	SortOrder      SortOrder `json:"sortOrder"`
}

// DefaultQuery is what a visitor sees before touching any control.
func DefaultQuery() Query {
	return Query{
		CategoryFilter: CategoryAll,
		SortBy:         SortByRating,
		SortOrder:      SortDesc,
	}
}
