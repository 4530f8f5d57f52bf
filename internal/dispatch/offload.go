package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/metrics"
)

// Store is the read-only due-selection the worker fleet polls.
type Store interface {
	DueDomainsAll(ctx context.Context, limit int) ([]core.DueDomain, error)
}

// Applier applies one result. Satisfied by apply.Service.
type Applier interface {
	Apply(ctx context.Context, domainID uuid.UUID, result *core.CheckResult) error
}

type ResultError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type SubmitOutcome struct {
	Processed int           `json:"processed"`
	Errors    []ResultError `json:"errors"`
}

// OffloadService is the boundary the remote worker fleet talks to:
// fetch due domains, submit results asynchronously.
type OffloadService struct {
	store   Store
	applier Applier
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewOffloadService(store Store, applier Applier, collector *metrics.Collector, logger *zap.Logger) *OffloadService {
	return &OffloadService{
		store:   store,
		applier: applier,
		metrics: collector,
		logger:  logger,
	}
}

// FetchDue returns up to limit due domains. Read-only by design: the
// worker marks domains pending, not this call, so polling frequently is
// safe.
func (s *OffloadService) FetchDue(ctx context.Context, limit int) ([]core.DueDomain, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	domains, err := s.store.DueDomainsAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due domains: %w", err)
	}
	return domains, nil
}

// SubmitResults routes each result to the applier independently. One
// bad result never blocks the rest; per-item failures come back in the
// outcome. Duplicate delivery is absorbed by the applier's idempotence.
func (s *OffloadService) SubmitResults(ctx context.Context, results []core.CheckResult) *SubmitOutcome {
	outcome := &SubmitOutcome{Errors: []ResultError{}}

	for i := range results {
		result := &results[i]
		if err := s.applier.Apply(ctx, result.DomainID, result); err != nil {
			s.logger.Warn("failed to apply offloaded result",
				zap.String("domain_id", result.DomainID.String()),
				zap.Error(err),
			)
			s.metrics.RecordOffloadResult("error")
			outcome.Errors = append(outcome.Errors, ResultError{
				ID:    result.DomainID.String(),
				Error: err.Error(),
			})
			continue
		}
		s.metrics.RecordOffloadResult("processed")
		outcome.Processed++
	}

	return outcome
}
