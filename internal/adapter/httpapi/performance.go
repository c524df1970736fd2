package httpapi

import (
	"context"
	"net/url"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
)

// PerformanceAdapter reads the dashboard metrics from GET /performance/dashboard.
type PerformanceAdapter struct {
	client *Client
}

func NewPerformanceAdapter(client *Client) *PerformanceAdapter {
	return &PerformanceAdapter{client: client}
}

func (a *PerformanceAdapter) GetDashboardMetrics(ctx context.Context, scope *domain.MetricsScope) (*domain.Metrics, error) {
	params := url.Values{}
	if scope != nil {
		if scope.TimeRange != "" {
			params.Set("time_range", scope.TimeRange)
		}
		if scope.Type != "" && scope.Type != domain.ContainerTypeAll {
			params.Set("type", string(scope.Type))
		}
	}

	var wire metricsWire
	if err := a.client.getJSON(ctx, "performance/dashboard", params, &wire); err != nil {
		return nil, err
	}
	return fromMetricsWire(wire), nil
}
