package domain

import "slices"

const DefaultPageSize = 25

// AllowedPageSizes are the page sizes the container API accepts, ascending.
var AllowedPageSizes = []int{10, 25, 50, 100}

// Pagination tracks the current page of the container list. Out-of-range
// requests are clamped, never rejected.
type Pagination struct {
	currentPage int
	pageSize    int
	totalItems  int
}

func DefaultPagination() Pagination {
	return Pagination{currentPage: 1, pageSize: DefaultPageSize, totalItems: 0}
}

// NewPagination normalizes its inputs: the size is snapped to an allowed
// value, the total floored at zero and the page clamped.
func NewPagination(page, pageSize, totalItems int) Pagination {
	if totalItems < 0 {
		totalItems = 0
	}
	p := Pagination{pageSize: NormalizePageSize(pageSize), totalItems: totalItems}
	p.currentPage = p.clamp(page)
	return p
}

func (p Pagination) CurrentPage() int { return p.currentPage }
func (p Pagination) PageSize() int    { return p.pageSize }
func (p Pagination) TotalItems() int  { return p.totalItems }

// TotalPages is never less than one, even for an empty fleet.
func (p Pagination) TotalPages() int {
	if p.pageSize <= 0 || p.totalItems == 0 {
		return 1
	}
	return (p.totalItems + p.pageSize - 1) / p.pageSize
}

// Offset is the zero-based index of the first item on the current page.
func (p Pagination) Offset() int {
	if p.currentPage < 1 {
		return 0
	}
	return (p.currentPage - 1) * p.pageSize
}

func (p Pagination) IsValid() bool {
	if !isAllowedPageSize(p.pageSize) || p.totalItems < 0 {
		return false
	}
	return p.currentPage >= 1 && p.currentPage <= p.TotalPages()
}

func (p Pagination) WithPage(n int) Pagination {
	p.currentPage = p.clamp(n)
	return p
}

// WithPageSize keeps the first visible item on screen where possible.
func (p Pagination) WithPageSize(size int) Pagination {
	size = NormalizePageSize(size)
	first := p.Offset()
	p.pageSize = size
	p.currentPage = p.clamp(first/size + 1)
	return p
}

func (p Pagination) WithTotalItems(n int) Pagination {
	if n < 0 {
		n = 0
	}
	p.totalItems = n
	p.currentPage = p.clamp(p.currentPage)
	return p
}

func (p Pagination) Equal(o Pagination) bool {
	return p.currentPage == o.currentPage && p.pageSize == o.pageSize && p.totalItems == o.totalItems
}

func (p Pagination) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if last := p.TotalPages(); n > last {
		return last
	}
	return n
}

// NormalizePageSize snaps size to the nearest allowed page size. Ties go to
// the smaller size.
func NormalizePageSize(size int) int {
	best := AllowedPageSizes[0]
	for _, s := range AllowedPageSizes[1:] {
		if abs(s-size) < abs(best-size) {
			best = s
		}
	}
	return best
}

func isAllowedPageSize(size int) bool {
	return slices.Contains(AllowedPageSizes, size)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
