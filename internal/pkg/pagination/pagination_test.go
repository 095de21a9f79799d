package pagination_test

import (
	"fmt"
	"testing"

	"github.com/inkrealm/blog/internal/models"
	"github.com/inkrealm/blog/internal/pkg/pagination"
	"github.com/inkrealm/blog/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		raw  string
		size int
		want pagination.Query
	}{
		{"", 9, pagination.Query{Page: 1, Size: 9}},
		{"3", 9, pagination.Query{Page: 3, Size: 9}},
		{"abc", 10, pagination.Query{Page: 1, Size: 10}},
		{"-4", 10, pagination.Query{Page: 1, Size: 10}},
		{"2", 0, pagination.Query{Page: 2, Size: pagination.DefaultSize}},
		{"2", 1000, pagination.Query{Page: 2, Size: pagination.MaxSize}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q/%d", tt.raw, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, pagination.New(tt.raw, tt.size))
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, pagination.TotalPages(0, 9))
	assert.Equal(t, 1, pagination.TotalPages(9, 9))
	assert.Equal(t, 2, pagination.TotalPages(10, 9))
}

func TestPaginateClampsPage(t *testing.T) {
	db := testutil.NewDB(t)
	for i := 0; i < 12; i++ {
		testutil.CreateCategory(t, db, fmt.Sprintf("cat %02d", i), fmt.Sprintf("cat-%02d", i))
	}

	var rows []models.CategoryModel
	p, err := pagination.Paginate(db.Model(&models.CategoryModel{}).Order("name ASC"), pagination.Query{Page: 99, Size: 5}, &rows)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentPage)
	assert.Equal(t, 3, p.TotalPage)
	assert.EqualValues(t, 12, p.Total)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
	require.Len(t, rows, 2)
	assert.Equal(t, "cat 10", rows[0].Name)
}

func TestPaginateEmpty(t *testing.T) {
	db := testutil.NewDB(t)

	var rows []models.CategoryModel
	p, err := pagination.Paginate(db.Model(&models.CategoryModel{}), pagination.Query{Page: 4, Size: 10}, &rows)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 1, p.TotalPage)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
