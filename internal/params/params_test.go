package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		limit  int
		page   int
		offset int
	}{
		{"defaults", "", 20, 1, 0},
		{"explicit", "limit=10&page=3", 10, 3, 20},
		{"limit capped", "limit=500", 60, 1, 0},
		{"garbage ignored", "limit=abc&page=-2", 20, 1, 0},
		{"zero limit falls back", "limit=0&page=2", 20, 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			p := ParsePagination(q)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 20, Page: 2, Offset: 20}
	p.ComputeMeta(45)

	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = Pagination{Limit: 20, Page: 3, Offset: 40}
	p.ComputeMeta(45)
	assert.False(t, p.HasNext)
}
