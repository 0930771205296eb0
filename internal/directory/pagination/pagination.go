// internal/directory/pagination/pagination.go
package pagination

// DefaultPageSize is the reveal batch size when none is configured.
const DefaultPageSize = 25

// Visible returns the first min(pageSize*pageCount, len(list)) items. The prefix only
// grows with pageCount and never reorders.
func Visible[T any](list []T, pageSize, pageCount int) []T {
	if pageSize <= 0 || pageCount <= 0 {
		return list[:0:0]
	}
	n := pageSize * pageCount
	if n > len(list) || n < 0 {
		n = len(list)
	}
	return list[:n:n]
}

// HasMore reports whether items remain hidden after pageCount pages.
func HasMore(total, pageSize, pageCount int) bool {
	if pageSize <= 0 || pageCount <= 0 {
		return total > 0
	}
	return pageSize*pageCount < total
}

// Controller tracks "load more" state for one query. A new controller has revealed
// nothing; Reset is used when the query changes and shows its first page.
type Controller struct {
	pageSize  int
	pageCount int
}

func New(pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{pageSize: pageSize}
}

func (c *Controller) PageSize() int  { return c.pageSize }
func (c *Controller) PageCount() int { return c.pageCount }

// Advance reveals one more page and returns the new page count.
func (c *Controller) Advance() int {
	c.pageCount++
	return c.pageCount
}

// Reset returns to the first page of a new query.
func (c *Controller) Reset() {
	c.pageCount = 1
}

// Limit is the number of items visible out of total.
func (c *Controller) Limit(total int) int {
	return len(Visible(make([]struct{}, total), c.pageSize, c.pageCount))
}

func (c *Controller) HasMore(total int) bool {
	return HasMore(total, c.pageSize, c.pageCount)
}
