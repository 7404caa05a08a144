package pkg

import "math"

// Page is a 1-indexed page request with a bounded size.
type Page struct {
	Page int
	Size int
}

// NewPage clamps page to >= 1 and size to [1, max], using def when size is unset.
// page is also capped so that page*size stays within int.
func NewPage(page, size, def, max int) Page {
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}
	if size <= 0 {
		size = 1
	}
	if page <= 0 {
		page = 1
	}
	if limit := math.MaxInt / size; page > limit {
		page = limit
	}
	return Page{Page: page, Size: size}
}

func (p Page) Offset() int { return (p.Page - 1) * p.Size }

func (p Page) HasMore(total int64) bool { return int64(p.Page*p.Size) < total }

// PageResult is one page of a listing plus the size of the whole listing.
type PageResult[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	HasMore  bool  `json:"hasMore"`
	Items    []T   `json:"items"`
}

func NewPageResult[T any](p Page, total int64, items []T) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{
		Page:     p.Page,
		PageSize: p.Size,
		Total:    total,
		HasMore:  p.HasMore(total),
		Items:    items,
	}
}

// Slice cuts the page out of an in-memory result set.
func Slice[T any](p Page, all []T) []T {
	start := p.Offset()
	if start < 0 || start >= len(all) {
		return nil
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
