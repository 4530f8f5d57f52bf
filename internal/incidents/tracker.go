package incidents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/notify"
)

// Store is the slice of persistence the tracker needs. The applier
// hands it the same transaction the domain update runs in, so the
// one-open-incident invariant holds under concurrent applies.
type Store interface {
	OpenIncidents(ctx context.Context, domainID uuid.UUID) ([]*core.DomainIncident, error)
	CreateIncident(ctx context.Context, inc *core.DomainIncident) error
	UpdateIncident(ctx context.Context, inc *core.DomainIncident) error
}

// Event is a notification trigger derived from a status transition.
// Only up/down boundary crossings produce events; down<->error
// reclassification updates the open incident silently.
type Event struct {
	Type      notify.Event
	AccountID uuid.UUID
	Domain    string
	Message   string
}

type Tracker struct {
	logger *zap.Logger
}

func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Transition runs the per-domain incident state machine for a status
// change and returns the event to forward, if any. Called only when the
// status actually changed value.
func (t *Tracker) Transition(ctx context.Context, store Store, domain *core.Domain, oldStatus, newStatus core.Status, at time.Time, message string) (*Event, error) {
	open, err := t.openIncident(ctx, store, domain.ID, at)
	if err != nil {
		return nil, err
	}

	switch {
	case newStatus.Unhealthy():
		if open != nil {
			// down<->error flapping: keep the incident, no event.
			open.StatusAfter = newStatus
			open.Message = message
			if err := store.UpdateIncident(ctx, open); err != nil {
				return nil, fmt.Errorf("failed to update incident: %w", err)
			}
			return nil, nil
		}

		inc := &core.DomainIncident{
			ID:           uuid.New(),
			AccountID:    domain.AccountID,
			DomainID:     domain.ID,
			StatusBefore: oldStatus,
			StatusAfter:  newStatus,
			OpenedAt:     at,
			Message:      message,
		}
		if err := store.CreateIncident(ctx, inc); err != nil {
			return nil, fmt.Errorf("failed to create incident: %w", err)
		}

		t.logger.Info("incident opened",
			zap.String("incident_id", inc.ID.String()),
			zap.String("domain", domain.Name),
			zap.String("status_before", string(oldStatus)),
			zap.String("status_after", string(newStatus)),
		)
		return &Event{
			Type:      notify.EventDomainDown,
			AccountID: domain.AccountID,
			Domain:    domain.Name,
			Message:   message,
		}, nil

	case newStatus == core.StatusOK:
		if open == nil {
			return nil, nil
		}
		closedAt := at
		open.ClosedAt = &closedAt
		open.StatusAfter = core.StatusOK
		if err := store.UpdateIncident(ctx, open); err != nil {
			return nil, fmt.Errorf("failed to close incident: %w", err)
		}

		t.logger.Info("incident closed",
			zap.String("incident_id", open.ID.String()),
			zap.String("domain", domain.Name),
			zap.Duration("duration", at.Sub(open.OpenedAt)),
		)
		return &Event{
			Type:      notify.EventDomainRecovered,
			AccountID: domain.AccountID,
			Domain:    domain.Name,
			Message:   message,
		}, nil
	}

	return nil, nil
}

// openIncident returns the domain's open incident. More than one open
// incident violates the invariant; the stale ones are closed
// defensively and the earliest kept, since it bounds the outage.
func (t *Tracker) openIncident(ctx context.Context, store Store, domainID uuid.UUID, at time.Time) (*core.DomainIncident, error) {
	open, err := store.OpenIncidents(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open incidents: %w", err)
	}
	if len(open) == 0 {
		return nil, nil
	}

	sort.Slice(open, func(i, j int) bool { return open[i].OpenedAt.Before(open[j].OpenedAt) })

	for _, stale := range open[1:] {
		t.logger.Warn("multiple open incidents for domain, closing stale one",
			zap.String("domain_id", domainID.String()),
			zap.String("incident_id", stale.ID.String()),
		)
		closedAt := at
		stale.ClosedAt = &closedAt
		if err := store.UpdateIncident(ctx, stale); err != nil {
			return nil, fmt.Errorf("failed to close stale incident: %w", err)
		}
	}

	return open[0], nil
}
