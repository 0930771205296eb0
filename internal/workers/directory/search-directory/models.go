// internal/workers/directory/search-directory/models.go
package searchdirectory

import "visa-directory/internal/models"

type Input struct {
	SearchTerm     string  `json:"searchTerm"`
	CategoryFilter string  `json:"categoryFilter"`
	MinRating      float64 `json:"minRating"`
	SortBy         string  `json:"sortBy"`
	SortOrder      string  `json:"sortOrder"`
	PageCount      int     `json:"pageCount"`
}

func (in *Input) Query() models.Query {
	return models.Query{
		SearchTerm:     in.SearchTerm,
		CategoryFilter: in.CategoryFilter,
		MinRating:      in.MinRating,
		SortBy:         models.SortField(in.SortBy),
		SortOrder:      models.SortOrder(in.SortOrder),
	}
}

type Output struct {
	Businesses []models.Business `json:"businesses"`
	Total      int               `json:"total"`
	PageCount  int               `json:"pageCount"`
	HasMore    bool              `json:"hasMore"`
	Empty      bool              `json:"empty"`
}
