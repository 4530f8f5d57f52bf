package incidents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/notify"
)

type fakeIncidentStore struct {
	incidents []*core.DomainIncident
}

func (f *fakeIncidentStore) OpenIncidents(ctx context.Context, domainID uuid.UUID) ([]*core.DomainIncident, error) {
	var open []*core.DomainIncident
	for _, inc := range f.incidents {
		if inc.DomainID == domainID && inc.Open() {
			open = append(open, inc)
		}
	}
	return open, nil
}

func (f *fakeIncidentStore) CreateIncident(ctx context.Context, inc *core.DomainIncident) error {
	f.incidents = append(f.incidents, inc)
	return nil
}

func (f *fakeIncidentStore) UpdateIncident(ctx context.Context, inc *core.DomainIncident) error {
	return nil
}

func testDomain() *core.Domain {
	return &core.Domain{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Name:      "example.com",
		Status:    core.StatusOK,
	}
}

func TestTransitionOpensIncidentOnFailure(t *testing.T) {
	store := &fakeIncidentStore{}
	tracker := NewTracker(zap.NewNop())
	domain := testDomain()
	now := time.Now().UTC()

	event, err := tracker.Transition(context.Background(), store, domain, core.StatusOK, core.StatusDown, now, "Connection timeout")
	require.NoError(t, err)

	require.NotNil(t, event)
	require.Equal(t, notify.EventDomainDown, event.Type)
	require.Equal(t, domain.Name, event.Domain)

	require.Len(t, store.incidents, 1)
	inc := store.incidents[0]
	require.Equal(t, core.StatusOK, inc.StatusBefore)
	require.Equal(t, core.StatusDown, inc.StatusAfter)
	require.Equal(t, "Connection timeout", inc.Message)
	require.True(t, inc.Open())
}

func TestTransitionOpensIncidentFromPending(t *testing.T) {
	// The scheduler marks domains pending before dispatch, so the
	// applier usually sees pending as the old status. A failure must
	// still open an incident.
	store := &fakeIncidentStore{}
	tracker := NewTracker(zap.NewNop())
	domain := testDomain()

	event, err := tracker.Transition(context.Background(), store, domain, core.StatusPending, core.StatusError, time.Now().UTC(), "DNS resolution failed")
	require.NoError(t, err)
	require.NotNil(t, event)
	require.Equal(t, notify.EventDomainDown, event.Type)

	require.Len(t, store.incidents, 1)
	require.Equal(t, core.StatusPending, store.incidents[0].StatusBefore)
}

func TestTransitionClosesIncidentOnRecovery(t *testing.T) {
	domain := testDomain()
	openedAt := time.Now().UTC().Add(-10 * time.Minute)
	store := &fakeIncidentStore{incidents: []*core.DomainIncident{{
		ID:           uuid.New(),
		AccountID:    domain.AccountID,
		DomainID:     domain.ID,
		StatusBefore: core.StatusOK,
		StatusAfter:  core.StatusDown,
		OpenedAt:     openedAt,
	}}}
	tracker := NewTracker(zap.NewNop())
	now := time.Now().UTC()

	event, err := tracker.Transition(context.Background(), store, domain, core.StatusDown, core.StatusOK, now, "Domain is reachable")
	require.NoError(t, err)

	require.NotNil(t, event)
	require.Equal(t, notify.EventDomainRecovered, event.Type)

	inc := store.incidents[0]
	require.False(t, inc.Open())
	require.Equal(t, now, *inc.ClosedAt)
	require.Equal(t, core.StatusOK, inc.StatusAfter)
}

func TestTransitionFlappingUpdatesSilently(t *testing.T) {
	domain := testDomain()
	store := &fakeIncidentStore{incidents: []*core.DomainIncident{{
		ID:          uuid.New(),
		DomainID:    domain.ID,
		StatusAfter: core.StatusDown,
		OpenedAt:    time.Now().UTC().Add(-5 * time.Minute),
	}}}
	tracker := NewTracker(zap.NewNop())

	event, err := tracker.Transition(context.Background(), store, domain, core.StatusDown, core.StatusError, time.Now().UTC(), "SSL Error: handshake failure")
	require.NoError(t, err)

	require.Nil(t, event, "down->error must not produce an event")
	require.Len(t, store.incidents, 1, "no new incident on reclassification")
	require.True(t, store.incidents[0].Open())
	require.Equal(t, core.StatusError, store.incidents[0].StatusAfter)
	require.Equal(t, "SSL Error: handshake failure", store.incidents[0].Message)
}

func TestTransitionRecoveryWithoutIncidentIsQuiet(t *testing.T) {
	store := &fakeIncidentStore{}
	tracker := NewTracker(zap.NewNop())

	event, err := tracker.Transition(context.Background(), store, testDomain(), core.StatusPending, core.StatusOK, time.Now().UTC(), "Domain is reachable")
	require.NoError(t, err)
	require.Nil(t, event)
	require.Empty(t, store.incidents)
}

func TestTransitionClosesStaleDuplicates(t *testing.T) {
	domain := testDomain()
	earliest := time.Now().UTC().Add(-time.Hour)
	later := time.Now().UTC().Add(-time.Minute)
	store := &fakeIncidentStore{incidents: []*core.DomainIncident{
		{ID: uuid.New(), DomainID: domain.ID, StatusAfter: core.StatusDown, OpenedAt: later},
		{ID: uuid.New(), DomainID: domain.ID, StatusAfter: core.StatusDown, OpenedAt: earliest},
	}}
	tracker := NewTracker(zap.NewNop())
	now := time.Now().UTC()

	event, err := tracker.Transition(context.Background(), store, domain, core.StatusDown, core.StatusOK, now, "Domain is reachable")
	require.NoError(t, err)
	require.NotNil(t, event)

	var open int
	for _, inc := range store.incidents {
		if inc.Open() {
			open++
		}
	}
	require.Zero(t, open, "every incident must be closed")

	// The earliest incident bounds the outage and carries the recovery.
	for _, inc := range store.incidents {
		if inc.OpenedAt.Equal(earliest) {
			require.Equal(t, core.StatusOK, inc.StatusAfter)
		}
	}
}
