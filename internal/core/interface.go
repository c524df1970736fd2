package core

import (
	"context"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
)

// ContainerSource lists one page of containers matching a query.
type ContainerSource interface {
	GetContainers(ctx context.Context, query domain.ContainerQuery) (domain.ContainerPage, error)
}

// MetricsSource reads the dashboard performance summary. A nil scope asks
// for the backend default.
type MetricsSource interface {
	GetDashboardMetrics(ctx context.Context, scope *domain.MetricsScope) (*domain.Metrics, error)
}

// FilterOptionsSource reads the catalogs behind the filter controls.
type FilterOptionsSource interface {
	GetFilterOptions(ctx context.Context) (domain.FilterOptions, error)
}

// Recorder receives view model telemetry.
type Recorder interface {
	FetchCompleted(source domain.FetchSource, err error)
	StaleDiscarded(source domain.FetchSource)
	StatusChanged(status Status)
}

type nopRecorder struct{}

func (nopRecorder) FetchCompleted(domain.FetchSource, error) {}
func (nopRecorder) StaleDiscarded(domain.FetchSource)        {}
func (nopRecorder) StatusChanged(Status)                     {}
