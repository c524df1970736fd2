package httpapi

import (
	"context"
	"strconv"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
)

// ContainerAdapter reads container pages from GET /containers.
type ContainerAdapter struct {
	client *Client
}

func NewContainerAdapter(client *Client) *ContainerAdapter {
	return &ContainerAdapter{client: client}
}

func (a *ContainerAdapter) GetContainers(ctx context.Context, q domain.ContainerQuery) (domain.ContainerPage, error) {
	params := q.Filters.ToQueryParams()
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))

	var wire containerListWire
	if err := a.client.getJSON(ctx, "containers", params, &wire); err != nil {
		return domain.ContainerPage{}, err
	}
	return fromContainerListWire(wire)
}
