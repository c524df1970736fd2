package httpapi

import (
	"fmt"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/auto-dns/fleet-dashboard/internal/util"
)

type containerWire struct {
	Id       string    `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Tenant   string    `json:"tenant"`
	Purpose  string    `json:"purpose"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	HasAlert bool      `json:"has_alert"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

type containerListWire struct {
	Items      []containerWire `json:"items"`
	TotalItems int             `json:"total_items"`
}

type typeMetricsWire struct {
	ContainerCount   int     `json:"container_count"`
	YieldKg          float64 `json:"yield_kg"`
	SpaceUtilization float64 `json:"space_utilization_pct"`
}

type metricsWire struct {
	Physical     typeMetricsWire `json:"physical"`
	Virtual      typeMetricsWire `json:"virtual"`
	ActiveAlerts int             `json:"active_alerts"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

type tenantWire struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type filterOptionsWire struct {
	Types    []string     `json:"types"`
	Tenants  []tenantWire `json:"tenants"`
	Purposes []string     `json:"purposes"`
	Statuses []string     `json:"statuses"`
}

func fromContainerListWire(w containerListWire) (domain.ContainerPage, error) {
	if w.TotalItems < len(w.Items) {
		return domain.ContainerPage{}, domain.NewAdapterError(domain.KindServer, 0,
			fmt.Errorf("total_items %d is smaller than the %d items returned", w.TotalItems, len(w.Items)))
	}
	return domain.ContainerPage{
		Items:      util.Map(w.Items, fromContainerWire),
		TotalItems: w.TotalItems,
	}, nil
}

func fromContainerWire(c containerWire) domain.ContainerRecord {
	return domain.ContainerRecord{
		Id:       c.Id,
		Name:     c.Name,
		Type:     domain.ContainerType(c.Type),
		TenantId: c.Tenant,
		Purpose:  c.Purpose,
		Location: c.Location,
		Status:   c.Status,
		HasAlert: c.HasAlert,
		Created:  c.Created,
		Modified: c.Modified,
	}
}

func fromTypeMetricsWire(w typeMetricsWire) domain.TypeMetrics {
	return domain.TypeMetrics{
		ContainerCount:   w.ContainerCount,
		YieldKg:          w.YieldKg,
		SpaceUtilization: w.SpaceUtilization,
	}
}

func fromMetricsWire(w metricsWire) *domain.Metrics {
	return &domain.Metrics{
		Physical:     fromTypeMetricsWire(w.Physical),
		Virtual:      fromTypeMetricsWire(w.Virtual),
		ActiveAlerts: w.ActiveAlerts,
		GeneratedAt:  w.GeneratedAt,
	}
}

func fromFilterOptionsWire(w filterOptionsWire) domain.FilterOptions {
	out := domain.EmptyFilterOptions()
	for _, t := range w.Types {
		ct := domain.ContainerType(t)
		if ct.IsValid() && ct != domain.ContainerTypeAll {
			out.Types = append(out.Types, ct)
		}
	}
	for _, t := range w.Tenants {
		if t.Id == "" {
			continue
		}
		out.Tenants = append(out.Tenants, domain.TenantOption{Id: t.Id, Name: t.Name})
	}
	out.Purposes = append(out.Purposes, util.Filter(w.Purposes, isCatalogValue)...)
	out.Statuses = append(out.Statuses, util.Filter(w.Statuses, isCatalogValue)...)
	return out
}

func isCatalogValue(v string) bool {
	return v != "" && v != domain.FilterAll
}
