// Package listutil parses list query parameters and pages in-memory result sets.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is used when per_page is missing or not an allowed value.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// Params are the list options of one request.
type Params struct {
	Search  string
	Sort    string // "" keeps the source order
	Desc    bool
	Page    int // 1-indexed; 0 means the whole result
	PerPage int
}

// Paged reports whether the caller asked for a page rather than the full list.
func (p Params) Paged() bool {
	return p.Page > 0
}

// Parse reads q, sort, dir, page and per_page. Sort columns outside allowed are dropped.
// PRE: none
// POST: Dir is ascending unless "desc"; Page is 0 unless page or per_page is present
func Parse(q url.Values, allowed []string) Params {
	p := Params{Search: q.Get("q")}
	if col := q.Get("sort"); slices.Contains(allowed, col) {
		p.Sort = col
		p.Desc = q.Get("dir") == "desc"
	}
	if !q.Has("page") && !q.Has("per_page") {
		return p
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, p.PerPage) {
		p.PerPage = DefaultPerPage
	}
	return p
}

// PageInfo carries pagination metadata.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page is clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), totalPages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the index of the first item on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Apply sorts items with cmp when a sort column is set, then cuts the requested page.
// cmp receives the column name and orders ascending; ties keep source order.
// PRE: items may be modified in place
// POST: Returns the page and its metadata; an unpaged request returns every item
func Apply[T any](items []T, p Params, cmp func(col string, a, b T) int) ([]T, PageInfo) {
	if p.Sort != "" && cmp != nil {
		slices.SortStableFunc(items, func(a, b T) int {
			if p.Desc {
				return cmp(p.Sort, b, a)
			}
			return cmp(p.Sort, a, b)
		})
	}
	if !p.Paged() {
		return items, PageInfo{Page: 1, PerPage: len(items), Total: len(items), TotalPages: 1}
	}
	info := NewPageInfo(p.Page, p.PerPage, len(items))
	start := min(info.Offset(), len(items))
	end := min(start+info.PerPage, len(items))
	return items[start:end], info
}
