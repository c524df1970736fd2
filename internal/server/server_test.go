package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/core"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	state   *domain.Dashboard
	status  core.Status
	err     error
	options domain.FilterOptions

	patches   []domain.FiltersPatch
	pages     []int
	sizes     []int
	refreshes int
	ctxErr    error
}

func (f *fakeModel) State() *domain.Dashboard            { return f.state }
func (f *fakeModel) Status() core.Status                 { return f.status }
func (f *fakeModel) LastError() error                    { return f.err }
func (f *fakeModel) FilterOptions() domain.FilterOptions { return f.options }

func (f *fakeModel) ChangeFilters(ctx context.Context, patch domain.FiltersPatch) {
	f.ctxErr = ctx.Err()
	f.patches = append(f.patches, patch)
}

func (f *fakeModel) ChangePage(ctx context.Context, n int) {
	f.ctxErr = ctx.Err()
	f.pages = append(f.pages, n)
}

func (f *fakeModel) ChangePageSize(ctx context.Context, size int) {
	f.ctxErr = ctx.Err()
	f.sizes = append(f.sizes, size)
}

func (f *fakeModel) Refresh(ctx context.Context) {
	f.ctxErr = ctx.Err()
	f.refreshes++
}

func sampleDashboard(t *testing.T) *domain.Dashboard {
	t.Helper()
	records := []domain.ContainerRecord{
		{Id: "c-1", Name: "Lettuce 1", Type: domain.ContainerTypePhysical, HasAlert: true},
		{Id: "c-2", Name: "Basil 2", Type: domain.ContainerTypeVirtual},
	}
	d, err := domain.Compose(
		domain.NewContainers(records),
		domain.NewPagination(2, 10, 12),
		domain.EmptyFilters().WithAlertsOnly(true),
		&domain.Metrics{Physical: domain.TypeMetrics{ContainerCount: 7, YieldKg: 12.5}, ActiveAlerts: 3},
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return d
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetDashboard(t *testing.T) {
	vm := &fakeModel{state: sampleDashboard(t), status: core.StatusReady}
	s := New(vm, false, nil, zerolog.Nop())

	rec := do(t, s, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	v := decode[dashboardView](t, rec)
	assert.Equal(t, "Ready", v.Status)
	assert.Nil(t, v.Error)
	assert.Len(t, v.Containers, 2)
	assert.Equal(t, paginationView{CurrentPage: 2, PageSize: 10, TotalItems: 12, TotalPages: 2}, v.Pagination)
	assert.True(t, v.Filters.AlertsOnly)
	assert.Equal(t, 12, v.TotalContainers)
	assert.Equal(t, 1, v.AlertCount)
	assert.True(t, v.HasActiveFilters)
	require.NotNil(t, v.Metrics)
	assert.Equal(t, 12.5, v.Metrics.Physical.YieldKg)
	require.NotNil(t, v.FetchedAt)
}

func TestGetDashboard_LocalAlertsHidesUnalerted(t *testing.T) {
	vm := &fakeModel{state: sampleDashboard(t), status: core.StatusReady}
	s := New(vm, true, nil, zerolog.Nop())

	v := decode[dashboardView](t, do(t, s, http.MethodGet, "/dashboard", ""))
	require.Len(t, v.Containers, 1)
	assert.Equal(t, "c-1", v.Containers[0].Id)
}

func TestGetDashboard_EmptyAndFailed(t *testing.T) {
	failure := domain.NewFetchFailure(domain.SourceContainers, domain.NewAdapterError(domain.KindServer, 503, errors.New("unavailable")))
	vm := &fakeModel{state: domain.EmptyDashboard(), status: core.StatusError, err: failure}
	s := New(vm, false, nil, zerolog.Nop())

	rec := do(t, s, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"containers":[]`)
	assert.Contains(t, rec.Body.String(), `"metrics":null`)

	v := decode[dashboardView](t, rec)
	assert.Equal(t, "Error", v.Status)
	require.NotNil(t, v.Error)
	assert.Equal(t, "containers", v.Error.Source)
	assert.Equal(t, "server", v.Error.Kind)
	assert.Nil(t, v.FetchedAt)
}

func TestPostFilters(t *testing.T) {
	vm := &fakeModel{state: domain.EmptyDashboard(), status: core.StatusReady}
	s := New(vm, false, nil, zerolog.Nop())

	rec := do(t, s, http.MethodPost, "/dashboard/filters", `{"type": "virtual", "alerts_only": true, "tenant": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, vm.patches, 1)
	p := vm.patches[0]
	require.NotNil(t, p.Type)
	assert.Equal(t, domain.ContainerTypeVirtual, *p.Type)
	require.NotNil(t, p.AlertsOnly)
	assert.True(t, *p.AlertsOnly)
	require.NotNil(t, p.Tenant)
	assert.Equal(t, domain.FilterAll, *p.Tenant)
	assert.Nil(t, p.Search)
	assert.NoError(t, vm.ctxErr)
}

func TestPostFilters_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"not an object", `[1, 2]`},
		{"unknown field", `{"colour": "green"}`},
		{"invalid type", `{"type": "orbital"}`},
		{"invalid bool", `{"alerts_only": "sometimes"}`},
		{"numeric value", `{"search": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := &fakeModel{state: domain.EmptyDashboard(), status: core.StatusReady}
			s := New(vm, false, nil, zerolog.Nop())

			rec := do(t, s, http.MethodPost, "/dashboard/filters", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, vm.patches)
			assert.NotEmpty(t, decode[errorView](t, rec).Message)
		})
	}
}

func TestPostPageAndPageSize(t *testing.T) {
	vm := &fakeModel{state: domain.EmptyDashboard(), status: core.StatusReady}
	s := New(vm, false, nil, zerolog.Nop())

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/dashboard/page", `{"page": 3}`).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/dashboard/page-size", `{"page_size": 50}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/dashboard/page", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/dashboard/page-size", `{"page_size": "big"}`).Code)

	assert.Equal(t, []int{3}, vm.pages)
	assert.Equal(t, []int{50}, vm.sizes)
}

func TestPostRefresh(t *testing.T) {
	vm := &fakeModel{state: domain.EmptyDashboard(), status: core.StatusReady}
	s := New(vm, false, nil, zerolog.Nop())

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/dashboard/refresh", "").Code)
	assert.Equal(t, 1, vm.refreshes)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/dashboard/refresh", "").Code)
}

func TestGetFilterOptions(t *testing.T) {
	vm := &fakeModel{
		state:  domain.EmptyDashboard(),
		status: core.StatusReady,
		options: domain.FilterOptions{
			Types:    []domain.ContainerType{domain.ContainerTypePhysical},
			Tenants:  []domain.TenantOption{{Id: "t-1", Name: "Acme Greens"}},
			Purposes: []string{"research"},
			Statuses: []string{},
		},
	}
	s := New(vm, false, nil, zerolog.Nop())

	v := decode[filterOptionsView](t, do(t, s, http.MethodGet, "/dashboard/filter-options", ""))
	assert.Equal(t, []string{"physical"}, v.Types)
	assert.Equal(t, []tenantView{{Id: "t-1", Name: "Acme Greens"}}, v.Tenants)
	assert.Equal(t, []string{"research"}, v.Purposes)
	assert.Empty(t, v.Statuses)
}

func TestMetricsMountedOnlyWhenGiven(t *testing.T) {
	vm := &fakeModel{state: domain.EmptyDashboard(), status: core.StatusReady}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "fleet_dashboard_status 2")
	})

	assert.Equal(t, http.StatusNotFound, do(t, New(vm, false, nil, zerolog.Nop()), http.MethodGet, "/metrics", "").Code)

	rec := do(t, New(vm, false, handler, zerolog.Nop()), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fleet_dashboard_status")
}

type stubContainers struct{ total int }

func (s stubContainers) GetContainers(_ context.Context, q domain.ContainerQuery) (domain.ContainerPage, error) {
	var items []domain.ContainerRecord
	offset := (q.Page - 1) * q.PageSize
	for i := offset; i < offset+q.PageSize && i < s.total; i++ {
		items = append(items, domain.ContainerRecord{Id: fmt.Sprintf("c-%03d", i), Type: domain.ContainerTypePhysical})
	}
	return domain.ContainerPage{Items: items, TotalItems: s.total}, nil
}

type stubMetrics struct{}

func (stubMetrics) GetDashboardMetrics(context.Context, *domain.MetricsScope) (*domain.Metrics, error) {
	return &domain.Metrics{ActiveAlerts: 1}, nil
}

type stubOptions struct{}

func (stubOptions) GetFilterOptions(context.Context) (domain.FilterOptions, error) {
	return domain.EmptyFilterOptions(), nil
}

func TestServer_WithViewModel(t *testing.T) {
	vm := core.NewViewModel(zerolog.Nop(), &config.DashboardConfig{DefaultPageSize: 10}, stubContainers{total: 35}, stubMetrics{}, stubOptions{})
	vm.Initialize(context.Background())
	defer vm.Dispose()
	s := New(vm, false, nil, zerolog.Nop())

	v := decode[dashboardView](t, do(t, s, http.MethodPost, "/dashboard/page", `{"page": 4}`))
	assert.Equal(t, "Ready", v.Status)
	assert.Equal(t, 4, v.Pagination.CurrentPage)
	assert.Equal(t, 4, v.Pagination.TotalPages)
	require.Len(t, v.Containers, 5)
	assert.Equal(t, "c-030", v.Containers[0].Id)
}
