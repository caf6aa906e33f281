// Package pagination provides a small total-count-aware page type shared by
// all listing queries. Pages are 1-indexed; callers can derive the total page
// count from the metadata.
package pagination

// Page is one page of a listing together with enough metadata to render
// pagination controls.
type Page[T any] struct {
	Items      []T
	Number     int // 1-indexed page number
	PerPage    int // page size used for this page
	TotalItems int // total matching items across all pages
}

// New builds a page. A number below 1 is clamped to 1.
func New[T any](items []T, number, perPage, totalItems int) Page[T] {
	if number < 1 {
		number = 1
	}
	return Page[T]{
		Items:      items,
		Number:     number,
		PerPage:    perPage,
		TotalItems: totalItems,
	}
}

// TotalPages returns the number of pages needed to cover TotalItems.
// A page size of zero or less yields 0 pages.
func (p Page[T]) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.TotalItems + p.PerPage - 1) / p.PerPage
}

// HasNext reports whether a page after this one exists.
func (p Page[T]) HasNext() bool {
	return p.Number < p.TotalPages()
}

// HasPrev reports whether a page before this one exists.
func (p Page[T]) HasPrev() bool {
	return p.Number > 1
}

// Offset converts a 1-indexed page number and page size into a query offset.
// Pages below 1 are clamped to the first page.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
