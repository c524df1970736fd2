package httpapi

import (
	"context"
	"net/url"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
)

// FiltersAdapter reads the filter catalogs from GET /containers/filter-options.
type FiltersAdapter struct {
	client *Client
}

func NewFiltersAdapter(client *Client) *FiltersAdapter {
	return &FiltersAdapter{client: client}
}

func (a *FiltersAdapter) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	var wire filterOptionsWire
	if err := a.client.getJSON(ctx, "containers/filter-options", url.Values{}, &wire); err != nil {
		return domain.FilterOptions{}, err
	}
	return fromFilterOptionsWire(wire), nil
}
