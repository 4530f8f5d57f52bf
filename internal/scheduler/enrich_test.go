package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
)

type enrichmentUpdate struct {
	ips       []string
	expiresAt *time.Time
}

type fakeEnrichStore struct {
	domains []*core.Domain
	updates map[uuid.UUID]enrichmentUpdate
}

func (f *fakeEnrichStore) DomainsForEnrichment(ctx context.Context, limit int) ([]*core.Domain, error) {
	if len(f.domains) > limit {
		return f.domains[:limit], nil
	}
	return f.domains, nil
}

func (f *fakeEnrichStore) UpdateDomainEnrichment(ctx context.Context, id uuid.UUID, ips []string, expiresAt *time.Time) error {
	if f.updates == nil {
		f.updates = make(map[uuid.UUID]enrichmentUpdate)
	}
	f.updates[id] = enrichmentUpdate{ips: ips, expiresAt: expiresAt}
	return nil
}

type fakeResolver struct {
	ips map[string][]string
}

func (f *fakeResolver) LookupA(ctx context.Context, domain string) ([]string, error) {
	ips, ok := f.ips[domain]
	if !ok {
		return nil, errors.New("lookup failed")
	}
	return ips, nil
}

type fakeExpiry struct {
	expiries map[string]time.Time
}

func (f *fakeExpiry) ExpiresAt(domain string) (*time.Time, error) {
	t, ok := f.expiries[domain]
	if !ok {
		return nil, errors.New("whois failed")
	}
	return &t, nil
}

func TestEnricherSavesSnapshot(t *testing.T) {
	d := &core.Domain{ID: uuid.New(), Name: "a.com"}
	store := &fakeEnrichStore{domains: []*core.Domain{d}}
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	enricher := NewEnricher(
		store,
		&fakeResolver{ips: map[string][]string{"a.com": {"192.0.2.1", "192.0.2.2"}}},
		&fakeExpiry{expiries: map[string]time.Time{"a.com": expiry}},
		100,
		zap.NewNop(),
	)
	enricher.Run(context.Background())

	update, ok := store.updates[d.ID]
	require.True(t, ok)
	require.Equal(t, []string{"192.0.2.1", "192.0.2.2"}, update.ips)
	require.Equal(t, expiry, *update.expiresAt)
}

func TestEnricherPartialFailureStillSaves(t *testing.T) {
	d := &core.Domain{ID: uuid.New(), Name: "a.com"}
	store := &fakeEnrichStore{domains: []*core.Domain{d}}

	// DNS succeeds, WHOIS fails: the snapshot is still worth keeping.
	enricher := NewEnricher(
		store,
		&fakeResolver{ips: map[string][]string{"a.com": {"192.0.2.1"}}},
		&fakeExpiry{},
		100,
		zap.NewNop(),
	)
	enricher.Run(context.Background())

	update, ok := store.updates[d.ID]
	require.True(t, ok)
	require.Equal(t, []string{"192.0.2.1"}, update.ips)
	require.Nil(t, update.expiresAt)
}

func TestEnricherSkipsWhenNothingResolved(t *testing.T) {
	d := &core.Domain{ID: uuid.New(), Name: "a.com"}
	store := &fakeEnrichStore{domains: []*core.Domain{d}}

	enricher := NewEnricher(store, &fakeResolver{}, &fakeExpiry{}, 100, zap.NewNop())
	enricher.Run(context.Background())

	require.Empty(t, store.updates)
}
