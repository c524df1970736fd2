package server

import (
	"errors"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/core"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/auto-dns/fleet-dashboard/internal/util"
)

type containerView struct {
	Id       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	TenantId string    `json:"tenant_id"`
	Purpose  string    `json:"purpose"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	HasAlert bool      `json:"has_alert"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

type paginationView struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

type filtersView struct {
	Search     string `json:"search"`
	Type       string `json:"type"`
	Tenant     string `json:"tenant"`
	Purpose    string `json:"purpose"`
	Status     string `json:"status"`
	AlertsOnly bool   `json:"alerts_only"`
}

type typeMetricsView struct {
	ContainerCount   int     `json:"container_count"`
	YieldKg          float64 `json:"yield_kg"`
	SpaceUtilization float64 `json:"space_utilization"`
}

type metricsView struct {
	Physical     typeMetricsView `json:"physical"`
	Virtual      typeMetricsView `json:"virtual"`
	ActiveAlerts int             `json:"active_alerts"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

type errorView struct {
	Source  string `json:"source,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

type dashboardView struct {
	Status           string          `json:"status"`
	Error            *errorView      `json:"error"`
	Containers       []containerView `json:"containers"`
	Pagination       paginationView  `json:"pagination"`
	Filters          filtersView     `json:"filters"`
	Metrics          *metricsView    `json:"metrics"`
	TotalContainers  int             `json:"total_containers"`
	AlertCount       int             `json:"alert_count"`
	HasActiveFilters bool            `json:"has_active_filters"`
	FetchedAt        *time.Time      `json:"fetched_at"`
}

type tenantView struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type filterOptionsView struct {
	Types    []string     `json:"types"`
	Tenants  []tenantView `json:"tenants"`
	Purposes []string     `json:"purposes"`
	Statuses []string     `json:"statuses"`
}

func toDashboardView(d *domain.Dashboard, status core.Status, lastErr error, localAlerts bool) dashboardView {
	p := d.Pagination()
	f := d.Filters()
	v := dashboardView{
		Status:     string(status),
		Error:      toErrorView(lastErr),
		Containers: util.Map(d.VisibleContainers(localAlerts).Records(), toContainerView),
		Pagination: paginationView{
			CurrentPage: p.CurrentPage(),
			PageSize:    p.PageSize(),
			TotalItems:  p.TotalItems(),
			TotalPages:  p.TotalPages(),
		},
		Filters: filtersView{
			Search:     f.Search(),
			Type:       string(f.Type()),
			Tenant:     f.Tenant(),
			Purpose:    f.Purpose(),
			Status:     f.Status(),
			AlertsOnly: f.AlertsOnly(),
		},
		TotalContainers:  d.TotalContainersCount(),
		AlertCount:       d.AlertCount(),
		HasActiveFilters: d.HasActiveFilters(),
	}
	if m := d.Metrics(); m != nil {
		v.Metrics = &metricsView{
			Physical:     toTypeMetricsView(m.Physical),
			Virtual:      toTypeMetricsView(m.Virtual),
			ActiveAlerts: m.ActiveAlerts,
			GeneratedAt:  m.GeneratedAt,
		}
	}
	if at := d.FetchedAt(); !at.IsZero() {
		v.FetchedAt = &at
	}
	return v
}

func toContainerView(r domain.ContainerRecord) containerView {
	return containerView{
		Id:       r.Id,
		Name:     r.Name,
		Type:     string(r.Type),
		TenantId: r.TenantId,
		Purpose:  r.Purpose,
		Location: r.Location,
		Status:   r.Status,
		HasAlert: r.HasAlert,
		Created:  r.Created,
		Modified: r.Modified,
	}
}

func toTypeMetricsView(m domain.TypeMetrics) typeMetricsView {
	return typeMetricsView{
		ContainerCount:   m.ContainerCount,
		YieldKg:          m.YieldKg,
		SpaceUtilization: m.SpaceUtilization,
	}
}

func toErrorView(err error) *errorView {
	if err == nil {
		return nil
	}
	v := &errorView{Message: err.Error()}
	var failure *domain.FetchFailure
	if errors.As(err, &failure) {
		v.Source = string(failure.Source)
		v.Kind = string(failure.Kind)
	}
	return v
}

func toFilterOptionsView(o domain.FilterOptions) filterOptionsView {
	return filterOptionsView{
		Types:    util.Map(o.Types, func(t domain.ContainerType) string { return string(t) }),
		Tenants:  util.Map(o.Tenants, func(t domain.TenantOption) tenantView { return tenantView{Id: t.Id, Name: t.Name} }),
		Purposes: o.Purposes,
		Statuses: o.Statuses,
	}
}
