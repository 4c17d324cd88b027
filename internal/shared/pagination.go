package shared

import (
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultPerPage is used when a request omits limit.
	DefaultPerPage = 20
	// MaxPerPage caps limit.
	MaxPerPage = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// PageRequest is the page/limit pair parsed from a query string.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the SQL offset of the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageRequest reads page and limit, clamping them to sane values.
func ParsePageRequest(q url.Values) PageRequest {
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(q.Get("per_page"))
	}
	switch {
	case limit <= 0:
		limit = DefaultPerPage
	case limit > MaxPerPage:
		limit = MaxPerPage
	}
	return PageRequest{Page: page, Limit: limit}
}
