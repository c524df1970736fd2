package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/auto-dns/fleet-dashboard/internal/adapter/httpapi"
	"github.com/auto-dns/fleet-dashboard/internal/catalog"
	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/core"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/rs/zerolog"
)

type catalogStore interface {
	Store(ctx context.Context, options domain.FilterOptions) error
}

// SyncCatalog copies the filter options served by the filters API into the
// etcd catalog.
func SyncCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	filtersClient, err := httpapi.NewClient("filters", cfg.API.FiltersURL, &cfg.API, &http.Client{}, logger)
	if err != nil {
		return err
	}
	etcdClient, err := dialEtcd(&cfg.Catalog)
	if err != nil {
		return err
	}
	store := catalog.NewEtcdCatalog(etcdClient, &cfg.Catalog, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing etcd client")
		}
	}()

	return syncCatalog(ctx, httpapi.NewFiltersAdapter(filtersClient), store, logger)
}

func syncCatalog(ctx context.Context, src core.FilterOptionsSource, dst catalogStore, logger zerolog.Logger) error {
	options, err := src.GetFilterOptions(ctx)
	if err != nil {
		return fmt.Errorf("fetch filter options: %w", err)
	}
	if options.IsEmpty() {
		return fmt.Errorf("filters API returned no options, refusing to clear the catalog")
	}
	if err := dst.Store(ctx, options); err != nil {
		return err
	}
	logger.Info().Msgf("Synced %d types, %d tenants, %d purposes, %d statuses", len(options.Types), len(options.Tenants), len(options.Purposes), len(options.Statuses))
	return nil
}
