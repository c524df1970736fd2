package domain

// ContainerQuery is what the container API is asked for.
type ContainerQuery struct {
	Page     int
	PageSize int
	Filters  Filters
}

func NewContainerQuery(p Pagination, f Filters) ContainerQuery {
	return ContainerQuery{Page: p.CurrentPage(), PageSize: p.PageSize(), Filters: f}
}

// ContainerPage is one page of results plus the fleet-wide match count.
type ContainerPage struct {
	Items      []ContainerRecord
	TotalItems int
}
