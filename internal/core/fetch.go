package core

import (
	"context"
	"sync"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
)

// fetchPlan describes the fetches one call issued.
type fetchPlan struct {
	containers       bool
	query            target
	containersSeq    uint64
	containersCtx    context.Context
	containersCancel context.CancelFunc

	aux           bool
	metricsSeq    uint64
	metricsCtx    context.Context
	metricsCancel context.CancelFunc
	optionsSeq    uint64
	optionsCtx    context.Context
	optionsCancel context.CancelFunc
}

// planFetch takes new sequence numbers for the requested fetches and cancels
// whatever they supersede. It must be called with mu held.
func (vm *ViewModel) planFetch(ctx context.Context, t *target, aux bool) fetchPlan {
	var p fetchPlan
	if t != nil {
		vm.containersSeq++
		if vm.cancelContainers != nil {
			vm.cancelContainers()
		}
		p.containers = true
		p.query = *t
		p.containersSeq = vm.containersSeq
		p.containersCtx, p.containersCancel = context.WithCancel(ctx)
		vm.cancelContainers = p.containersCancel
	}
	if aux {
		vm.metricsSeq++
		vm.optionsSeq++
		if vm.cancelMetrics != nil {
			vm.cancelMetrics()
		}
		if vm.cancelOptions != nil {
			vm.cancelOptions()
		}
		p.aux = true
		p.metricsSeq = vm.metricsSeq
		p.optionsSeq = vm.optionsSeq
		p.metricsCtx, p.metricsCancel = context.WithCancel(ctx)
		p.optionsCtx, p.optionsCancel = context.WithCancel(ctx)
		vm.cancelMetrics = p.metricsCancel
		vm.cancelOptions = p.optionsCancel
	}
	return p
}

// execute runs the planned fetches concurrently and applies each result as
// soon as it settles. It returns once all of them have settled.
func (vm *ViewModel) execute(p fetchPlan) {
	var wg sync.WaitGroup
	if p.containers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer p.containersCancel()
			page, err := vm.containers.GetContainers(p.containersCtx, vm.containerQuery(p.query))
			vm.applyContainers(p.containersSeq, p.query, page, err)
		}()
	}
	if p.aux {
		wg.Add(2)
		go func() {
			defer wg.Done()
			defer p.metricsCancel()
			m, err := vm.metrics.GetDashboardMetrics(p.metricsCtx, vm.metricsScope())
			vm.applyMetrics(p.metricsSeq, m, err)
		}()
		go func() {
			defer wg.Done()
			defer p.optionsCancel()
			o, err := vm.options.GetFilterOptions(p.optionsCtx)
			vm.applyOptions(p.optionsSeq, o, err)
		}()
	}
	wg.Wait()
}

func (vm *ViewModel) containerQuery(t target) domain.ContainerQuery {
	filters := t.filters
	if vm.cfg.LocalAlerts() {
		filters = filters.WithAlertsOnly(false)
	}
	return domain.NewContainerQuery(t.pagination, filters)
}

func (vm *ViewModel) metricsScope() *domain.MetricsScope {
	if vm.cfg.MetricsTimeRange == "" {
		return nil
	}
	return &domain.MetricsScope{TimeRange: vm.cfg.MetricsTimeRange}
}

func (vm *ViewModel) applyContainers(seq uint64, q target, page domain.ContainerPage, err error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.disposed {
		return
	}
	if seq != vm.containersSeq {
		vm.recorder.StaleDiscarded(domain.SourceContainers)
		vm.logger.Debug().Msgf("Discarding stale containers result for page %d (seq %d, latest %d)", q.pagination.CurrentPage(), seq, vm.containersSeq)
		return
	}
	vm.recorder.FetchCompleted(domain.SourceContainers, err)

	if err != nil {
		failure := domain.NewFetchFailure(domain.SourceContainers, err)
		vm.lastError = failure
		vm.target = target{pagination: vm.state.Pagination(), filters: vm.state.Filters()}
		if vm.status == StatusLoading {
			vm.logger.Error().Err(failure).Msg("Initial container load failed")
			vm.setStatus(StatusError)
		} else {
			vm.logger.Warn().Err(failure).Msg("Container reload failed, keeping previous snapshot")
			vm.setStatus(StatusReady)
		}
		return
	}

	filters := q.filters
	if vm.cfg.LocalAlerts() {
		filters = filters.WithAlertsOnly(vm.target.filters.AlertsOnly())
	}
	pagination := q.pagination.WithTotalItems(page.TotalItems)
	containers := domain.NewContainers(page.Items)

	next, cerr := domain.Compose(containers, pagination, filters, vm.state.Metrics(), vm.now())
	if cerr != nil {
		if vm.cfg.StrictInvariants {
			panic(cerr)
		}
		vm.logger.Error().Err(cerr).Msg("Container API returned an oversized page, truncating")
		next, _ = domain.Compose(containers.Truncate(pagination.PageSize()), pagination, filters, vm.state.Metrics(), vm.now())
	}

	vm.state = next
	vm.target = target{pagination: next.Pagination(), filters: next.Filters()}
	vm.setStatus(StatusReady)
	vm.logger.Debug().Msgf("Loaded page %d/%d with %d of %d containers", pagination.CurrentPage(), pagination.TotalPages(), containers.Count(), pagination.TotalItems())
	vm.publish()
}

func (vm *ViewModel) applyMetrics(seq uint64, m *domain.Metrics, err error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.disposed {
		return
	}
	if seq != vm.metricsSeq {
		vm.recorder.StaleDiscarded(domain.SourceMetrics)
		return
	}
	vm.recorder.FetchCompleted(domain.SourceMetrics, err)

	if err != nil {
		failure := domain.NewFetchFailure(domain.SourceMetrics, err)
		vm.logger.Warn().Err(failure).Msg("Metrics fetch failed")
		vm.setFailure(failure)
		m = nil
	}
	vm.state = vm.state.WithMetrics(m)
	vm.publish()
}

func (vm *ViewModel) applyOptions(seq uint64, o domain.FilterOptions, err error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.disposed {
		return
	}
	if seq != vm.optionsSeq {
		vm.recorder.StaleDiscarded(domain.SourceFilters)
		return
	}
	vm.recorder.FetchCompleted(domain.SourceFilters, err)

	if err != nil {
		failure := domain.NewFetchFailure(domain.SourceFilters, err)
		vm.logger.Warn().Err(failure).Msg("Filter options fetch failed")
		vm.setFailure(failure)
		vm.filterOptions = domain.EmptyFilterOptions()
		return
	}
	vm.filterOptions = o.Clone()
}
