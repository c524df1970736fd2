package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct{ n atomic.Int32 }

func (c *countingRefresher) Refresh(context.Context) { c.n.Add(1) }

func TestRunRefreshLoop_Ticks(t *testing.T) {
	r := &countingRefresher{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		runRefreshLoop(ctx, r, 5*time.Millisecond, zerolog.Nop())
	}()

	assert.Eventually(t, func() bool { return r.n.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
}

func TestRunRefreshLoop_Disabled(t *testing.T) {
	r := &countingRefresher{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	runRefreshLoop(ctx, r, 0, zerolog.Nop())
	assert.Equal(t, int32(0), r.n.Load())
}

type optionsFunc func(ctx context.Context) (domain.FilterOptions, error)

func (f optionsFunc) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	return f(ctx)
}

type memStore struct{ stored []domain.FilterOptions }

func (m *memStore) Store(_ context.Context, o domain.FilterOptions) error {
	m.stored = append(m.stored, o)
	return nil
}

func TestSyncCatalog(t *testing.T) {
	options := domain.FilterOptions{
		Types:    []domain.ContainerType{domain.ContainerTypePhysical},
		Tenants:  []domain.TenantOption{{Id: "t-1", Name: "Acme Greens"}},
		Purposes: []string{"research"},
		Statuses: []string{"active"},
	}
	store := &memStore{}
	err := syncCatalog(context.Background(), optionsFunc(func(context.Context) (domain.FilterOptions, error) {
		return options, nil
	}), store, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []domain.FilterOptions{options}, store.stored)
}

func TestSyncCatalog_RefusesEmptyOrFailed(t *testing.T) {
	store := &memStore{}
	err := syncCatalog(context.Background(), optionsFunc(func(context.Context) (domain.FilterOptions, error) {
		return domain.EmptyFilterOptions(), nil
	}), store, zerolog.Nop())
	assert.Error(t, err)

	err = syncCatalog(context.Background(), optionsFunc(func(context.Context) (domain.FilterOptions, error) {
		return domain.FilterOptions{}, errors.New("boom")
	}), store, zerolog.Nop())
	assert.ErrorContains(t, err, "boom")
	assert.Empty(t, store.stored)
}

func TestNew_RejectsBadAPIURL(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("api.containers_url", "ftp://fleet.example")
	cfg, err := config.Load(v)
	require.NoError(t, err)

	_, err = New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_WiresHTTPBackends(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, a.etcdClient)
	assert.NotNil(t, a.httpServer.Handler)
	assert.NoError(t, a.Close())
}
