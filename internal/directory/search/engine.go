// internal/directory/search/engine.go
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"visa-directory/internal/models"
)

var ErrInvalidQuery = errors.New("INVALID_QUERY")

// Normalize fills defaults and maps unknown sort fields or orders to the defaults.
func Normalize(q models.Query) models.Query {
	def := models.DefaultQuery()

	q.SearchTerm = strings.TrimSpace(q.SearchTerm)
	q.CategoryFilter = strings.TrimSpace(q.CategoryFilter)
	if q.CategoryFilter == "" || strings.EqualFold(q.CategoryFilter, models.CategoryAll) {
		q.CategoryFilter = models.CategoryAll
	}
	if q.MinRating < 0 {
		q.MinRating = 0
	}
	if !validSortField(q.SortBy) {
		q.SortBy = def.SortBy
	}
	if q.SortOrder != models.SortAsc && q.SortOrder != models.SortDesc {
		q.SortOrder = def.SortOrder
	}
	return q
}

// Validate is the strict counterpart of Normalize for request boundaries.
func Validate(q models.Query) error {
	if q.SortBy != "" && !validSortField(q.SortBy) {
		return fmt.Errorf("%w: sortBy %q", ErrInvalidQuery, q.SortBy)
	}
	if q.SortOrder != "" && q.SortOrder != models.SortAsc && q.SortOrder != models.SortDesc {
		return fmt.Errorf("%w: sortOrder %q", ErrInvalidQuery, q.SortOrder)
	}
	if q.MinRating < 0 || q.MinRating > 5 {
		return fmt.Errorf("%w: minRating %v outside 0-5", ErrInvalidQuery, q.MinRating)
	}
	return nil
}

func validSortField(f models.SortField) bool {
	switch f {
	case models.SortByName, models.SortByRating, models.SortByReviews, models.SortByReports:
		return true
	}
	return false
}

// Apply runs the text, category and rating filters in that order, then a stable sort.
// The input slice is never modified and an empty result is a valid answer.
func Apply(bs []models.Business, q models.Query) []models.Business {
	q = Normalize(q)

	term := strings.ToLower(q.SearchTerm)
	cat := strings.ToLower(q.CategoryFilter)

	out := make([]models.Business, 0, len(bs))
	for _, b := range bs {
		if !matchesTerm(b, term) {
			continue
		}
		if cat != models.CategoryAll && !strings.Contains(strings.ToLower(b.Category), cat) {
			continue
		}
		if !meetsRating(b, q.MinRating) {
			continue
		}
		out = append(out, b)
	}

	sortBusinesses(out, q.SortBy, q.SortOrder)
	return out
}

func matchesTerm(b models.Business, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Name), term) ||
		strings.Contains(strings.ToLower(b.Address), term) ||
		strings.Contains(strings.ToLower(b.Category), term)
}

// meetsRating admits unrated businesses only while no minimum is requested.
func meetsRating(b models.Business, min float64) bool {
	if min <= 0 {
		return true
	}
	return b.Rating != nil && *b.Rating >= min
}

func sortBusinesses(bs []models.Business, by models.SortField, order models.SortOrder) {
	cmp := comparator(by)
	sort.SliceStable(bs, func(i, j int) bool {
		c := cmp(bs[i], bs[j])
		if order == models.SortDesc {
			c = -c
		}
		return c < 0
	})
}

func comparator(by models.SortField) func(a, b models.Business) int {
	switch by {
	case models.SortByName:
		return func(a, b models.Business) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case models.SortByReviews:
		return func(a, b models.Business) int { return compareInt(a.ReviewCount, b.ReviewCount) }
	case models.SortByReports:
		return func(a, b models.Business) int { return compareInt(a.ReportCount, b.ReportCount) }
	default:
		return func(a, b models.Business) int { return compareFloat(a.RatingValue(), b.RatingValue()) }
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
