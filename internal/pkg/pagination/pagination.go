package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inkrealm/blog/internal/pkg/response"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Query holds parsed pagination parameters.
type Query struct {
	Page int
	Size int
}

// FromContext reads the page parameter from the request. The page size is
// fixed by the caller; anything that is not a positive integer means page 1.
func FromContext(c *gin.Context, size int) Query {
	return New(c.Query("page"), size)
}

// New builds a Query from a raw page value.
func New(rawPage string, size int) Query {
	page := parseIntOr(rawPage, DefaultPage)
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Query{Page: page, Size: size}
}

// TotalPages returns the number of pages for total rows, never less than 1.
func TotalPages(total int64, size int) int {
	if size < 1 {
		size = DefaultSize
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Paginate counts the query, clamps the requested page into range and loads
// that page into dest. Scopes apply to the page load only, which keeps
// preloads out of the count.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T, scopes ...func(*gorm.DB) *gorm.DB) (response.Pagination, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}

	totalPage := TotalPages(total, q.Size)
	page := q.Page
	if page > totalPage {
		page = totalPage
	}
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * q.Size
	if err := db.Scopes(scopes...).Offset(offset).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}
	if *dest == nil {
		*dest = []T{}
	}

	return response.Pagination{
		Total:       total,
		CurrentPage: page,
		TotalPage:   totalPage,
		Size:        q.Size,
		HasNextPage: page < totalPage,
		HasPrevPage: page > 1,
	}, nil
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
