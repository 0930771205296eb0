package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestController_LoadMoreOverSixtyItems(t *testing.T) {
	list := sequence(60)
	c := New(25)

	assert.Empty(t, Visible(list, c.PageSize(), c.PageCount()), "nothing revealed before the first advance")

	c.Advance()
	assert.Len(t, Visible(list, c.PageSize(), c.PageCount()), 25)
	assert.True(t, c.HasMore(len(list)))

	c.Advance()
	assert.Len(t, Visible(list, c.PageSize(), c.PageCount()), 50)

	c.Advance()
	assert.Len(t, Visible(list, c.PageSize(), c.PageCount()), 60, "capped at the list length, not 75")
	assert.False(t, c.HasMore(len(list)))
	assert.Equal(t, 60, c.Limit(len(list)))
}

func TestVisible_MonotonicPrefix(t *testing.T) {
	list := sequence(37)
	previous := []int{}
	for pageCount := 0; pageCount <= 5; pageCount++ {
		current := Visible(list, 10, pageCount)
		require.GreaterOrEqual(t, len(current), len(previous))
		assert.Equal(t, previous, current[:len(previous)], "page %d reordered the prefix", pageCount)
		previous = current
	}
}

func TestVisible_EdgeCases(t *testing.T) {
	assert.Empty(t, Visible(sequence(10), 0, 3))
	assert.Empty(t, Visible(sequence(10), 5, -1))
	assert.Empty(t, Visible([]int{}, 25, 4))
	assert.Len(t, Visible(sequence(10), 25, 1), 10)
}

func TestVisible_AppendDoesNotClobberSource(t *testing.T) {
	list := sequence(10)
	page := Visible(list, 3, 1)
	page = append(page, 99)

	assert.Equal(t, 3, list[3], "capacity is clipped so appends copy")
	assert.Equal(t, []int{0, 1, 2, 99}, page)
}

func TestController_Reset(t *testing.T) {
	c := New(25)
	c.Advance()
	c.Advance()
	c.Advance()
	require.Equal(t, 3, c.PageCount())

	c.Reset()
	assert.Equal(t, 1, c.PageCount())
	assert.Len(t, Visible(sequence(60), c.PageSize(), c.PageCount()), 25)
}

func TestNew_DefaultPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, New(0).PageSize())
	assert.Equal(t, 10, New(10).PageSize())
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(60, 25, 2))
	assert.False(t, HasMore(50, 25, 2))
	assert.True(t, HasMore(1, 25, 0))
	assert.False(t, HasMore(0, 25, 0))
}
