package v1

import (
	"net/http"
	"strconv"

	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

// DefaultPageSize is the default number of items per page.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 100

// PaginationParams holds pagination parameters parsed from query strings.
type PaginationParams struct {
	page     int
	pageSize int
}

// NewPaginationParams creates pagination params with defaults.
func NewPaginationParams() PaginationParams {
	return PaginationParams{page: 1, pageSize: DefaultPageSize}
}

// ParsePagination reads page and page_size from the query string.
// Invalid values fall back to the defaults; page_size is capped at MaxPageSize.
func ParsePagination(r *http.Request) PaginationParams {
	params := NewPaginationParams()
	q := r.URL.Query()

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 1 {
		params.page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil && size >= 1 {
		params.pageSize = min(size, MaxPageSize)
	}
	return params
}

// Page returns the page number (1-indexed).
func (p PaginationParams) Page() int { return p.page }

// PageSize returns the page size.
func (p PaginationParams) PageSize() int { return p.pageSize }

// Offset returns the offset for database queries.
func (p PaginationParams) Offset() int { return (p.page - 1) * p.pageSize }

// Limit returns the limit for database queries.
func (p PaginationParams) Limit() int { return p.pageSize }

// Meta builds the paging block for a response.
func (p PaginationParams) Meta(total int64) *dto.Meta {
	pages := 0
	if p.pageSize > 0 {
		pages = (int(total) + p.pageSize - 1) / p.pageSize
	}
	return &dto.Meta{
		Total:      total,
		Page:       p.page,
		PageSize:   p.pageSize,
		TotalPages: pages,
	}
}
