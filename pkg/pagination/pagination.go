package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params is a page request read from ?page=&per_page=.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Offset is the number of records before the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest reads page and per_page, falling back to 1 and 20 on missing
// or invalid values. per_page is capped at 100.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, PerPage: defaultPerPage}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		p.PerPage = min(v, maxPerPage)
	}
	return p
}

// Result is one page of T plus totals.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewResult builds a page result. items must already be the requested page.
func NewResult[T any](items []T, totalCount int, p Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := (totalCount + p.PerPage - 1) / p.PerPage
	return Result[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}

// Slice returns the page of all selected by p.
func Slice[T any](all []T, p Params) []T {
	start := p.Offset()
	if start >= len(all) {
		return nil
	}
	end := min(start+p.PerPage, len(all))
	return all[start:end]
}
