package apply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/incidents"
	"github.com/domainwatch/domainwatch/internal/metrics"
	"github.com/domainwatch/domainwatch/internal/notify"
)

var (
	// ErrDomainNotFound signals a result referencing a missing (or
	// deleted) domain. Not fatal to a caller applying a batch.
	ErrDomainNotFound = errors.New("domain not found")

	// ErrInvalidStatus rejects results carrying a status outside the
	// taxonomy. Offload submissions are untrusted input.
	ErrInvalidStatus = errors.New("invalid result status")
)

// Tx is the transactional storage surface one apply runs against.
// DomainForUpdate takes a row lock, which serializes applies per
// domain without any global lock.
type Tx interface {
	incidents.Store
	DomainForUpdate(ctx context.Context, id uuid.UUID) (*core.Domain, error)
	SaveDomainCheck(ctx context.Context, d *core.Domain) error
	IncrementBatchProcessed(ctx context.Context, accountID uuid.UUID, at time.Time) error
}

type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// StatusCache mirrors the freshest domain status for read paths.
// Best-effort: failures are logged, never propagated.
type StatusCache interface {
	CacheDomainStatus(ctx context.Context, domainID uuid.UUID, status core.Status, checkedAt time.Time) error
}

// Service applies check results to domains, idempotently per
// (domain, checked_at), and derives incident records and notification
// events from the resulting transitions.
type Service struct {
	store    Store
	tracker  *incidents.Tracker
	notifier notify.Notifier
	cache    StatusCache
	metrics  *metrics.Collector
	logger   *zap.Logger
}

func NewService(store Store, tracker *incidents.Tracker, notifier notify.Notifier, cache StatusCache, collector *metrics.Collector, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		tracker:  tracker,
		notifier: notifier,
		cache:    cache,
		metrics:  collector,
		logger:   logger,
	}
}

// Apply records one check result against a domain. Re-applying a result
// the domain has already seen (stored last_checked_at >= incoming
// checked_at) is a no-op, which makes at-least-once delivery from the
// worker fleet safe without a distributed transaction.
func (s *Service) Apply(ctx context.Context, domainID uuid.UUID, result *core.CheckResult) error {
	if !result.Status.Valid() || result.Status == core.StatusPending {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, result.Status)
	}

	var (
		event   *incidents.Event
		applied *core.Domain
	)

	err := s.store.Transact(ctx, func(tx Tx) error {
		domain, err := tx.DomainForUpdate(ctx, domainID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrDomainNotFound, domainID)
			}
			return err
		}

		if domain.LastCheckedAt != nil && !domain.LastCheckedAt.Before(result.CheckedAt) {
			s.logger.Debug("skipping already-applied result",
				zap.String("domain", domain.Name),
				zap.Time("checked_at", result.CheckedAt),
			)
			return nil
		}

		oldStatus := domain.Status
		newStatus := result.Status

		checkedAt := result.CheckedAt
		domain.LastCheckedAt = &checkedAt
		domain.SSLValid = result.SSLValid
		domain.LastCheckError = result.Error

		if newStatus != oldStatus {
			domain.Status = newStatus
			domain.StatusSince = checkedAt
			if newStatus == core.StatusOK {
				domain.LastUpAt = &checkedAt
			} else {
				domain.LastDownAt = &checkedAt
			}

			event, err = s.tracker.Transition(ctx, tx, domain, oldStatus, newStatus, checkedAt, s.transitionMessage(result))
			if err != nil {
				return err
			}
		}

		if err := tx.SaveDomainCheck(ctx, domain); err != nil {
			return fmt.Errorf("failed to save domain: %w", err)
		}

		if err := tx.IncrementBatchProcessed(ctx, domain.AccountID, checkedAt); err != nil {
			return fmt.Errorf("failed to update check batch: %w", err)
		}

		applied = domain
		return nil
	})
	if err != nil {
		return err
	}
	if applied == nil {
		return nil
	}

	s.metrics.RecordResultApplied(applied.AccountID, result)

	if s.cache != nil {
		if err := s.cache.CacheDomainStatus(ctx, applied.ID, applied.Status, result.CheckedAt); err != nil {
			s.logger.Debug("failed to cache domain status", zap.Error(err))
		}
	}

	if event != nil {
		s.forward(ctx, event)
	}

	return nil
}

// forward delivers a notification event. Failures are logged, never
// propagated: a broken webhook must not fail result application.
func (s *Service) forward(ctx context.Context, event *incidents.Event) {
	if err := s.notifier.Notify(ctx, event.AccountID, event.Type, event.Domain, event.Message); err != nil {
		s.logger.Error("failed to send notification",
			zap.Error(err),
			zap.String("event", string(event.Type)),
			zap.String("domain", event.Domain),
		)
		s.metrics.RecordNotification(event.Type, false)
		return
	}
	s.metrics.RecordNotification(event.Type, true)
}

func (s *Service) transitionMessage(result *core.CheckResult) string {
	if result.Error != nil && *result.Error != "" {
		return *result.Error
	}
	if result.Status == core.StatusOK {
		return "Domain is reachable"
	}
	return "Check failed"
}
