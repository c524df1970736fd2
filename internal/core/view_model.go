package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/rs/zerolog"
)

// ViewModel coordinates the container, metrics and filter-option sources
// into one published Dashboard snapshot.
//
// Every call that fetches containers takes a new sequence number. A result
// is applied only if its sequence number is still the latest one issued, so
// the visible state always reflects the most recently issued change no
// matter in which order responses arrive.
type ViewModel struct {
	logger     zerolog.Logger
	cfg        *config.DashboardConfig
	containers ContainerSource
	metrics    MetricsSource
	options    FilterOptionsSource
	recorder   Recorder
	now        func() time.Time

	mu            sync.Mutex
	status        Status
	state         *domain.Dashboard
	target        target
	filterOptions domain.FilterOptions
	lastError     error
	initialized   bool
	disposed      bool

	containersSeq    uint64
	metricsSeq       uint64
	optionsSeq       uint64
	cancelContainers context.CancelFunc
	cancelMetrics    context.CancelFunc
	cancelOptions    context.CancelFunc

	subscribers map[int]chan *domain.Dashboard
	nextSubId   int
}

// target is the pagination and filters of the latest issued container query.
type target struct {
	pagination domain.Pagination
	filters    domain.Filters
}

type Option func(*ViewModel)

func WithRecorder(r Recorder) Option {
	return func(vm *ViewModel) {
		if r != nil {
			vm.recorder = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(vm *ViewModel) {
		if now != nil {
			vm.now = now
		}
	}
}

func NewViewModel(logger zerolog.Logger, cfg *config.DashboardConfig, containers ContainerSource, metrics MetricsSource, options FilterOptionsSource, opts ...Option) *ViewModel {
	vm := &ViewModel{
		logger:        logger.With().Str("component", "view_model").Logger(),
		cfg:           cfg,
		containers:    containers,
		metrics:       metrics,
		options:       options,
		recorder:      nopRecorder{},
		now:           time.Now,
		status:        StatusUninitialized,
		filterOptions: domain.EmptyFilterOptions(),
		subscribers:   make(map[int]chan *domain.Dashboard),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.state = vm.emptyState()
	vm.target = target{pagination: vm.state.Pagination(), filters: vm.state.Filters()}
	return vm
}

// State returns the current snapshot. Snapshots are immutable.
func (vm *ViewModel) State() *domain.Dashboard {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

func (vm *ViewModel) Status() Status {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.status
}

// LastError is the most recent failure of the current cycle, or nil.
func (vm *ViewModel) LastError() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.lastError
}

func (vm *ViewModel) FilterOptions() domain.FilterOptions {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.filterOptions.Clone()
}

// IsInitialized reports whether Initialize has been called.
func (vm *ViewModel) IsInitialized() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.initialized
}

// Initialize performs the first load. Only the first call has any effect.
func (vm *ViewModel) Initialize(ctx context.Context) {
	vm.mu.Lock()
	if vm.initialized || vm.disposed {
		vm.mu.Unlock()
		return
	}
	vm.initialized = true
	vm.logger.Info().Msg("Initializing dashboard")
	plan := vm.beginLoad(ctx)
	vm.mu.Unlock()

	vm.execute(plan)
}

// ChangeFilters merges patch into the filters and reloads from page 1.
func (vm *ViewModel) ChangeFilters(ctx context.Context, patch domain.FiltersPatch) {
	vm.mu.Lock()
	if !vm.canChange("filters") {
		vm.mu.Unlock()
		return
	}
	filters, err := vm.target.filters.Apply(patch)
	if err != nil {
		vm.lastError = err
		vm.logger.Warn().Err(err).Msg("Rejected filter change")
		vm.mu.Unlock()
		return
	}
	if filters.Equal(vm.target.filters) {
		vm.mu.Unlock()
		return
	}
	if vm.cfg.LocalAlerts() && filters.WithAlertsOnly(vm.target.filters.AlertsOnly()).Equal(vm.target.filters) {
		// Only alerts-only changed and it is resolved on the fetched page.
		vm.target.filters = filters
		vm.state = vm.state.WithFilters(vm.state.Filters().WithAlertsOnly(filters.AlertsOnly()))
		vm.publish()
		vm.mu.Unlock()
		return
	}
	plan := vm.beginChange(ctx, target{pagination: vm.target.pagination.WithPage(1), filters: filters})
	vm.mu.Unlock()

	vm.execute(plan)
}

// ChangePage moves to page n, clamped to the known page range.
func (vm *ViewModel) ChangePage(ctx context.Context, n int) {
	vm.mu.Lock()
	if !vm.canChange("page") {
		vm.mu.Unlock()
		return
	}
	next := vm.target.pagination.WithPage(n)
	if next.Equal(vm.target.pagination) {
		vm.mu.Unlock()
		return
	}
	plan := vm.beginChange(ctx, target{pagination: next, filters: vm.target.filters})
	vm.mu.Unlock()

	vm.execute(plan)
}

// ChangePageSize switches the page size, keeping the first visible item on
// screen where possible.
func (vm *ViewModel) ChangePageSize(ctx context.Context, size int) {
	vm.mu.Lock()
	if !vm.canChange("page size") {
		vm.mu.Unlock()
		return
	}
	next := vm.target.pagination.WithPageSize(size)
	if next.Equal(vm.target.pagination) {
		vm.mu.Unlock()
		return
	}
	plan := vm.beginChange(ctx, target{pagination: next, filters: vm.target.filters})
	vm.mu.Unlock()

	vm.execute(plan)
}

// Refresh reloads all three sources with the current filters and page. From
// the Error status it retries the initial load.
func (vm *ViewModel) Refresh(ctx context.Context) {
	vm.mu.Lock()
	var plan fetchPlan
	switch {
	case vm.disposed:
		vm.mu.Unlock()
		return
	case vm.status == StatusError:
		vm.logger.Info().Msg("Retrying initial dashboard load")
		plan = vm.beginLoad(ctx)
	case vm.status.acceptsChanges():
		vm.lastError = nil
		vm.setStatus(StatusRefreshing)
		t := vm.target
		plan = vm.planFetch(ctx, &t, true)
	default:
		vm.logger.Debug().Msgf("Ignoring refresh while %s", vm.status)
		vm.mu.Unlock()
		return
	}
	vm.mu.Unlock()

	vm.execute(plan)
}

// Dispose cancels in-flight fetches and closes all subscriptions. Late
// results are dropped.
func (vm *ViewModel) Dispose() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.disposed {
		return
	}
	vm.disposed = true
	for _, cancel := range []context.CancelFunc{vm.cancelContainers, vm.cancelMetrics, vm.cancelOptions} {
		if cancel != nil {
			cancel()
		}
	}
	for id, ch := range vm.subscribers {
		close(ch)
		delete(vm.subscribers, id)
	}
	vm.logger.Info().Msg("Dashboard view model disposed")
}

// Subscribe returns a channel that receives the current snapshot and every
// snapshot published after it. A slow reader only ever sees the newest one.
func (vm *ViewModel) Subscribe() (<-chan *domain.Dashboard, func()) {
	ch := make(chan *domain.Dashboard, 1)
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.disposed {
		close(ch)
		return ch, func() {}
	}
	id := vm.nextSubId
	vm.nextSubId++
	vm.subscribers[id] = ch
	ch <- vm.state
	return ch, func() {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if c, ok := vm.subscribers[id]; ok {
			close(c)
			delete(vm.subscribers, id)
		}
	}
}

func (vm *ViewModel) emptyState() *domain.Dashboard {
	empty := domain.EmptyDashboard()
	if vm.cfg.DefaultPageSize > 0 {
		empty = empty.WithPagination(empty.Pagination().WithPageSize(vm.cfg.DefaultPageSize))
	}
	return empty
}

// canChange must be called with mu held.
func (vm *ViewModel) canChange(what string) bool {
	if vm.disposed {
		return false
	}
	if !vm.status.acceptsChanges() {
		vm.logger.Debug().Msgf("Ignoring %s change while %s", what, vm.status)
		return false
	}
	return true
}

// beginLoad must be called with mu held.
func (vm *ViewModel) beginLoad(ctx context.Context) fetchPlan {
	vm.lastError = nil
	vm.setStatus(StatusLoading)
	vm.target = target{pagination: vm.state.Pagination(), filters: vm.state.Filters()}
	t := vm.target
	return vm.planFetch(ctx, &t, true)
}

// beginChange must be called with mu held.
func (vm *ViewModel) beginChange(ctx context.Context, t target) fetchPlan {
	vm.lastError = nil
	vm.target = t
	vm.setStatus(StatusRefreshing)
	return vm.planFetch(ctx, &t, false)
}

func (vm *ViewModel) setStatus(s Status) {
	if vm.status == s {
		return
	}
	vm.logger.Debug().Msgf("Status %s -> %s", vm.status, s)
	vm.status = s
	vm.recorder.StatusChanged(s)
}

// setFailure keeps a containers failure visible over later metrics or
// filter-option failures.
func (vm *ViewModel) setFailure(f *domain.FetchFailure) {
	var current *domain.FetchFailure
	if errors.As(vm.lastError, &current) && current.Source == domain.SourceContainers && f.Source != domain.SourceContainers {
		return
	}
	vm.lastError = f
}

func (vm *ViewModel) publish() {
	for _, ch := range vm.subscribers {
		select {
		case ch <- vm.state:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- vm.state:
			default:
			}
		}
	}
}
