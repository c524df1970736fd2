package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type etcdClient interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Txn(ctx context.Context) clientv3.Txn
	Close() error
}

// EtcdCatalog serves filter options kept in etcd, one key per option:
//
//	<prefix>/types/physical   {"order": 0}
//	<prefix>/tenants/t-1      {"label": "Acme Greens", "order": 0}
type EtcdCatalog struct {
	client etcdClient
	cfg    *config.CatalogConfig
	logger zerolog.Logger
}

func NewEtcdCatalog(client etcdClient, cfg *config.CatalogConfig, logger zerolog.Logger) *EtcdCatalog {
	return &EtcdCatalog{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "etcd_catalog").Logger(),
	}
}

type catalogItem struct {
	id    string
	entry etcdEntry
}

// GetFilterOptions lists every option under the configured prefix. Keys that
// cannot be parsed are skipped.
func (ec *EtcdCatalog) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	resp, err := ec.client.Get(ctx, keyPrefix(ec.cfg.EtcdPrefix), clientv3.WithPrefix())
	if err != nil {
		return domain.FilterOptions{}, domain.NewAdapterError(domain.ClassifyFailure(err), 0, fmt.Errorf("list filter catalog: %w", err))
	}

	byKind := map[entryKind][]catalogItem{}
	for _, kv := range resp.Kvs {
		keyStr := string(kv.Key)
		kind, id, err := parseEntryKey(ec.cfg.EtcdPrefix, keyStr)
		if err != nil {
			ec.logger.Warn().Err(err).Msgf("Skipping catalog key %s", keyStr)
			continue
		}
		entry, err := unmarshalEtcdValue(kv.Value)
		if err != nil {
			ec.logger.Warn().Err(err).Msgf("Skipping catalog key %s", keyStr)
			continue
		}
		byKind[kind] = append(byKind[kind], catalogItem{id: id, entry: entry})
	}
	for _, items := range byKind {
		slices.SortFunc(items, func(a, b catalogItem) int {
			if c := cmp.Compare(a.entry.Order, b.entry.Order); c != 0 {
				return c
			}
			return cmp.Compare(a.id, b.id)
		})
	}

	out := domain.EmptyFilterOptions()
	for _, it := range byKind[kindType] {
		ct := domain.ContainerType(it.id)
		if !ct.IsValid() || ct == domain.ContainerTypeAll {
			ec.logger.Warn().Msgf("Skipping unknown container type %q in catalog", it.id)
			continue
		}
		out.Types = append(out.Types, ct)
	}
	for _, it := range byKind[kindTenant] {
		name := it.entry.Label
		if name == "" {
			name = it.id
		}
		out.Tenants = append(out.Tenants, domain.TenantOption{Id: it.id, Name: name})
	}
	for _, it := range byKind[kindPurpose] {
		out.Purposes = append(out.Purposes, it.id)
	}
	for _, it := range byKind[kindStatus] {
		out.Statuses = append(out.Statuses, it.id)
	}
	return out, nil
}

// Store replaces the whole catalog under the prefix in one transaction.
// Keys that are no longer wanted are deleted; a put and a delete of the same
// key cannot share a transaction.
func (ec *EtcdCatalog) Store(ctx context.Context, options domain.FilterOptions) error {
	puts := map[string]string{}
	add := func(kind entryKind, id string, entry etcdEntry) error {
		value, err := marshalEtcdValue(entry)
		if err != nil {
			return err
		}
		puts[entryKey(ec.cfg.EtcdPrefix, kind, id)] = value
		return nil
	}
	for i, t := range options.Types {
		if err := add(kindType, string(t), etcdEntry{Order: i}); err != nil {
			return err
		}
	}
	for i, t := range options.Tenants {
		if err := add(kindTenant, t.Id, etcdEntry{Label: t.Name, Order: i}); err != nil {
			return err
		}
	}
	for i, p := range options.Purposes {
		if err := add(kindPurpose, p, etcdEntry{Order: i}); err != nil {
			return err
		}
	}
	for i, st := range options.Statuses {
		if err := add(kindStatus, st, etcdEntry{Order: i}); err != nil {
			return err
		}
	}

	resp, err := ec.client.Get(ctx, keyPrefix(ec.cfg.EtcdPrefix), clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return fmt.Errorf("list filter catalog: %w", err)
	}
	var ops []clientv3.Op
	removed := 0
	for _, kv := range resp.Kvs {
		if _, keep := puts[string(kv.Key)]; !keep {
			ops = append(ops, clientv3.OpDelete(string(kv.Key)))
			removed++
		}
	}
	keys := make([]string, 0, len(puts))
	for k := range puts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		ops = append(ops, clientv3.OpPut(k, puts[k]))
	}

	if _, err := ec.client.Txn(ctx).Then(ops...).Commit(); err != nil {
		return fmt.Errorf("store filter catalog: %w", err)
	}
	ec.logger.Info().Msgf("Stored %d filter catalog entries, removed %d", len(puts), removed)
	return nil
}

func (ec *EtcdCatalog) Close() error {
	return ec.client.Close()
}
