package domain

import (
	"fmt"
	"time"
)

// Dashboard is an immutable snapshot of everything the container list view
// shows. Every transition returns a new snapshot.
type Dashboard struct {
	containers Containers
	pagination Pagination
	filters    Filters
	metrics    *Metrics
	fetchedAt  time.Time
}

// EmptyDashboard is the snapshot before the first load: no containers,
// default filters, page 1 and no metrics.
func EmptyDashboard() *Dashboard {
	return &Dashboard{
		pagination: DefaultPagination(),
		filters:    EmptyFilters(),
	}
}

// Compose builds a snapshot. A page holding more records than the page size
// is rejected with an InvariantViolationError.
func Compose(containers Containers, pagination Pagination, filters Filters, metrics *Metrics, fetchedAt time.Time) (*Dashboard, error) {
	if containers.Count() > pagination.PageSize() {
		return nil, NewInvariantViolationError(fmt.Sprintf("page holds %d containers, page size is %d", containers.Count(), pagination.PageSize()))
	}
	return &Dashboard{
		containers: containers,
		pagination: pagination,
		filters:    filters,
		metrics:    copyMetrics(metrics),
		fetchedAt:  fetchedAt,
	}, nil
}

func (d *Dashboard) Containers() Containers { return d.containers }
func (d *Dashboard) Pagination() Pagination { return d.pagination }
func (d *Dashboard) Filters() Filters       { return d.filters }
func (d *Dashboard) FetchedAt() time.Time   { return d.fetchedAt }

// Metrics returns a copy of the metrics, or nil while they are unknown.
func (d *Dashboard) Metrics() *Metrics {
	return copyMetrics(d.metrics)
}

// TotalContainersCount is the fleet-wide match count, not the page length.
func (d *Dashboard) TotalContainersCount() int {
	return d.pagination.TotalItems()
}

func (d *Dashboard) AlertCount() int {
	return d.containers.AlertCount()
}

func (d *Dashboard) HasActiveFilters() bool {
	return d.filters.HasActiveFilters()
}

// VisibleContainers is the page as displayed. With localAlerts set the
// alerts-only filter is applied to the fetched page instead of the server.
func (d *Dashboard) VisibleContainers(localAlerts bool) Containers {
	if localAlerts && d.filters.AlertsOnly() {
		return d.containers.WithAlerts()
	}
	return d.containers
}

// WithMetrics attaches metrics that settled on their own schedule, leaving
// the rest of the snapshot alone.
func (d *Dashboard) WithMetrics(m *Metrics) *Dashboard {
	next := *d
	next.metrics = copyMetrics(m)
	return &next
}

// WithFilters swaps the filters without touching the fetched page. Used when
// a filter change is resolved locally.
func (d *Dashboard) WithFilters(f Filters) *Dashboard {
	next := *d
	next.filters = f
	return &next
}

// WithPagination replaces the pagination; the page is truncated if it no
// longer fits.
func (d *Dashboard) WithPagination(p Pagination) *Dashboard {
	next := *d
	next.pagination = p
	next.containers = d.containers.Truncate(p.PageSize())
	return &next
}

func copyMetrics(m *Metrics) *Metrics {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
