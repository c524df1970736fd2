package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/adapter/httpapi"
	"github.com/auto-dns/fleet-dashboard/internal/catalog"
	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/core"
	"github.com/auto-dns/fleet-dashboard/internal/metrics"
	"github.com/auto-dns/fleet-dashboard/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg        *config.Config
	etcdClient *clientv3.Client
	vm         *core.ViewModel
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a new App by wiring up all dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	httpClient := &http.Client{}

	// Backend APIs
	containersClient, err := httpapi.NewClient("containers", cfg.API.ContainersURL, &cfg.API, httpClient, logger)
	if err != nil {
		return nil, err
	}
	performanceClient, err := httpapi.NewClient("performance", cfg.API.PerformanceURL, &cfg.API, httpClient, logger)
	if err != nil {
		return nil, err
	}

	// Filter catalog
	var options core.FilterOptionsSource
	var etcdClient *clientv3.Client
	if strings.EqualFold(cfg.Catalog.Backend, config.CatalogBackendEtcd) {
		etcdClient, err = dialEtcd(&cfg.Catalog)
		if err != nil {
			return nil, err
		}
		options = catalog.NewEtcdCatalog(etcdClient, &cfg.Catalog, logger)
	} else {
		filtersClient, err := httpapi.NewClient("filters", cfg.API.FiltersURL, &cfg.API, httpClient, logger)
		if err != nil {
			return nil, err
		}
		options = httpapi.NewFiltersAdapter(filtersClient)
	}

	// Metrics
	var registerer prometheus.Registerer
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registerer = reg
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	recorder := metrics.NewRecorder(registerer)

	// View model
	vm := core.NewViewModel(
		logger,
		&cfg.Dashboard,
		httpapi.NewContainerAdapter(containersClient),
		httpapi.NewPerformanceAdapter(performanceClient),
		options,
		core.WithRecorder(recorder),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      server.New(vm, cfg.Dashboard.LocalAlerts(), metricsHandler, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		cfg:        cfg,
		etcdClient: etcdClient,
		vm:         vm,
		httpServer: httpServer,
		logger:     logger,
	}, nil
}

// Run serves the dashboard, performs the initial load and keeps refreshing
// until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Msgf("Application starting, listening on %s", a.cfg.Server.ListenAddr)

	serveErr := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	a.vm.Initialize(ctx)
	if a.vm.Status() == core.StatusError {
		a.logger.Error().Err(a.vm.LastError()).Msg("Initial dashboard load failed, will retry on refresh")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runRefreshLoop(loopCtx, a.vm, a.cfg.Dashboard.RefreshInterval, a.logger)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("Application shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}
	cancel()
	<-loopDone

	a.vm.Dispose()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown http server: %w", err)
	}
	return runErr
}

func (a *App) Close() error {
	if a.etcdClient != nil {
		if err := a.etcdClient.Close(); err != nil {
			return fmt.Errorf("close etcd client: %w", err)
		}
	}
	return nil
}

func dialEtcd(cfg *config.CatalogConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return client, nil
}
