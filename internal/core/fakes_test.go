package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/rs/zerolog"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type containersFunc func(ctx context.Context, q domain.ContainerQuery) (domain.ContainerPage, error)

func (f containersFunc) GetContainers(ctx context.Context, q domain.ContainerQuery) (domain.ContainerPage, error) {
	return f(ctx, q)
}

type metricsFunc func(ctx context.Context, scope *domain.MetricsScope) (*domain.Metrics, error)

func (f metricsFunc) GetDashboardMetrics(ctx context.Context, scope *domain.MetricsScope) (*domain.Metrics, error) {
	return f(ctx, scope)
}

type optionsFunc func(ctx context.Context) (domain.FilterOptions, error)

func (f optionsFunc) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	return f(ctx)
}

// recordingContainers remembers every query it was asked.
type recordingContainers struct {
	mu      sync.Mutex
	queries []domain.ContainerQuery
	next    containersFunc
}

func (r *recordingContainers) GetContainers(ctx context.Context, q domain.ContainerQuery) (domain.ContainerPage, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	return r.next(ctx, q)
}

func (r *recordingContainers) Queries() []domain.ContainerQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ContainerQuery(nil), r.queries...)
}

// gatedContainers hands each call to the test, which decides when and how
// it resolves. Context cancellation is ignored on purpose so late replies
// really arrive.
type gatedContainers struct {
	calls chan *pendingContainers
}

type pendingContainers struct {
	query domain.ContainerQuery
	reply chan containersReply
}

type containersReply struct {
	page domain.ContainerPage
	err  error
}

func newGatedContainers() *gatedContainers {
	return &gatedContainers{calls: make(chan *pendingContainers, 16)}
}

func (g *gatedContainers) GetContainers(_ context.Context, q domain.ContainerQuery) (domain.ContainerPage, error) {
	p := &pendingContainers{query: q, reply: make(chan containersReply, 1)}
	g.calls <- p
	r := <-p.reply
	return r.page, r.err
}

func (g *gatedContainers) next(t *testing.T) *pendingContainers {
	t.Helper()
	select {
	case p := <-g.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a containers call")
		return nil
	}
}

func (p *pendingContainers) resolve(total int) {
	p.reply <- containersReply{page: pageFor(p.query, total)}
}

func (p *pendingContainers) fail(err error) {
	p.reply <- containersReply{err: err}
}

type countingRecorder struct {
	mu       sync.Mutex
	stale    map[domain.FetchSource]int
	failed   map[domain.FetchSource]int
	statuses []Status
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stale: map[domain.FetchSource]int{}, failed: map[domain.FetchSource]int{}}
}

func (r *countingRecorder) FetchCompleted(source domain.FetchSource, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed[source]++
	}
}

func (r *countingRecorder) StaleDiscarded(source domain.FetchSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale[source]++
}

func (r *countingRecorder) StatusChanged(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *countingRecorder) Stale(source domain.FetchSource) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale[source]
}

// pageFor serves a fleet of total containers named c-000, c-001, ...
// Every fifth container carries an alert.
func pageFor(q domain.ContainerQuery, total int) domain.ContainerPage {
	start := (q.Page - 1) * q.PageSize
	end := min(start+q.PageSize, total)
	var items []domain.ContainerRecord
	for i := start; i < end; i++ {
		items = append(items, domain.ContainerRecord{
			Id:       fmt.Sprintf("c-%03d", i),
			Name:     fmt.Sprintf("farm-%03d", i),
			Type:     domain.ContainerTypePhysical,
			Status:   "active",
			HasAlert: i%5 == 0,
		})
	}
	return domain.ContainerPage{Items: items, TotalItems: total}
}

func fleet(total int) containersFunc {
	return func(_ context.Context, q domain.ContainerQuery) (domain.ContainerPage, error) {
		return pageFor(q, total), nil
	}
}

func okMetrics(alerts int) metricsFunc {
	return func(context.Context, *domain.MetricsScope) (*domain.Metrics, error) {
		return &domain.Metrics{ActiveAlerts: alerts, Physical: domain.TypeMetrics{ContainerCount: 3}}, nil
	}
}

func okOptions() optionsFunc {
	return func(context.Context) (domain.FilterOptions, error) {
		return domain.FilterOptions{
			Types:    []domain.ContainerType{domain.ContainerTypePhysical, domain.ContainerTypeVirtual},
			Tenants:  []domain.TenantOption{{Id: "tenant-1", Name: "Acme Greens"}},
			Purposes: []string{"development", "research", "production"},
			Statuses: []string{"active", "maintenance", "inactive"},
		}, nil
	}
}

func newTestViewModel(cfg *config.DashboardConfig, c ContainerSource, m MetricsSource, o FilterOptionsSource, opts ...Option) *ViewModel {
	if cfg == nil {
		cfg = &config.DashboardConfig{DefaultPageSize: 25, AlertsFilterMode: config.AlertsFilterServer}
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewViewModel(zerolog.Nop(), cfg, c, m, o, opts...)
}

// async runs fn in a goroutine and returns a channel closed when it returns.
func async(fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	return done
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view model call to return")
	}
}
