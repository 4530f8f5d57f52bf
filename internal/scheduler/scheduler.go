package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/core"
	"github.com/domainwatch/domainwatch/internal/dispatch"
	"github.com/domainwatch/domainwatch/internal/metrics"
)

// Store is the persistence surface the scheduler drives.
type Store interface {
	AccountsWithDomains(ctx context.Context) ([]*core.Account, error)
	DueDomains(ctx context.Context, accountID uuid.UUID, intervalMinutes, limit int, force bool) ([]*core.Domain, error)
	MarkPending(ctx context.Context, ids []uuid.UUID, now time.Time) error
	HasIncompleteBatch(ctx context.Context, accountID uuid.UUID) (bool, error)
	CreateBatch(ctx context.Context, batch *core.CheckBatch) error
	AbandonStaleBatches(ctx context.Context, olderThan time.Time) (int64, error)
}

// PlanPolicy resolves the check interval bound by the account's plan.
type PlanPolicy interface {
	CheckIntervalMinutes(ctx context.Context, accountID uuid.UUID) int
}

// TickLease guards against overlapping ticks across service instances.
type TickLease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Scheduler is the only time-driven component. Every tick it selects
// due domains per account, marks them pending, records a CheckBatch and
// dispatches the set locally or to the offload fleet.
type Scheduler struct {
	store    Store
	policy   PlanPolicy
	lease    TickLease
	local    dispatch.Dispatcher
	offload  dispatch.Dispatcher
	enricher *Enricher
	metrics  *metrics.Collector
	config   config.SchedulerConfig
	logger   *zap.Logger
}

func NewScheduler(store Store, policy PlanPolicy, lease TickLease, local, offload dispatch.Dispatcher, enricher *Enricher, collector *metrics.Collector, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		policy:   policy,
		lease:    lease,
		local:    local,
		offload:  offload,
		enricher: enricher,
		metrics:  collector,
		config:   cfg,
		logger:   logger,
	}
}

// Run drives the three cadences: the per-minute due sweep, the periodic
// forced full sweep, and the stale-batch sweep. Blocks until ctx ends.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("starting scheduler",
		zap.Duration("tick_interval", s.config.TickInterval),
		zap.Duration("full_sweep_interval", s.config.FullSweepInterval),
	)

	tick := time.NewTicker(s.config.TickInterval)
	defer tick.Stop()
	full := time.NewTicker(s.config.FullSweepInterval)
	defer full.Stop()
	stale := time.NewTicker(s.config.StaleSweepInterval)
	defer stale.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping scheduler")
			return
		case <-tick.C:
			if err := s.Tick(ctx, false); err != nil {
				s.logger.Error("tick failed", zap.Error(err))
			}
		case <-full.C:
			if err := s.Tick(ctx, true); err != nil {
				s.logger.Error("full sweep failed", zap.Error(err))
			}
			if s.enricher != nil {
				s.enricher.Run(ctx)
			}
		case <-stale.C:
			s.SweepStaleBatches(ctx)
		}
	}
}

// Tick runs one scheduling round. With force set the interval filter is
// bypassed (the daily catch-all sweep); the per-tick batch cap still
// applies. A tick that cannot take the lease is skipped entirely.
func (s *Scheduler) Tick(ctx context.Context, force bool) error {
	acquired, err := s.lease.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.Warn("tick skipped, lease held by another instance")
		s.metrics.RecordTickSkipped()
		return nil
	}
	defer func() {
		if err := s.lease.Release(ctx); err != nil {
			s.logger.Warn("failed to release tick lease", zap.Error(err))
		}
	}()

	accounts, err := s.store.AccountsWithDomains(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	queued := 0

	for _, account := range accounts {
		n, err := s.scheduleAccount(ctx, account, now, force)
		if err != nil {
			s.logger.Error("failed to schedule account",
				zap.String("account_id", account.ID.String()),
				zap.Error(err),
			)
			continue
		}
		queued += n
	}

	s.metrics.RecordDomainsQueued(queued)
	if queued > 0 {
		s.logger.Info("scheduled domain checks",
			zap.Int("count", queued),
			zap.Bool("force", force),
		)
	}
	return nil
}

func (s *Scheduler) scheduleAccount(ctx context.Context, account *core.Account, now time.Time, force bool) (int, error) {
	if !force {
		incomplete, err := s.store.HasIncompleteBatch(ctx, account.ID)
		if err != nil {
			return 0, err
		}
		if incomplete {
			s.logger.Debug("account has an in-flight batch, skipping",
				zap.String("account_id", account.ID.String()),
			)
			return 0, nil
		}
	}

	interval := s.policy.CheckIntervalMinutes(ctx, account.ID)
	due, err := s.store.DueDomains(ctx, account.ID, interval, s.config.BatchSize, force)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	// Pending is written before dispatch so a crash in between leaves
	// the domain visibly queued rather than stale "ok".
	ids := make([]uuid.UUID, len(due))
	for i, domain := range due {
		ids[i] = domain.ID
	}
	if err := s.store.MarkPending(ctx, ids, now); err != nil {
		return 0, err
	}

	batch := &core.CheckBatch{
		ID:           uuid.New(),
		AccountID:    account.ID,
		Status:       core.BatchScheduled,
		TotalDomains: len(due),
		ScheduledFor: now,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return 0, err
	}

	dispatcher := s.local
	if account.CheckMode == core.CheckModeOffload {
		dispatcher = s.offload
	}
	if err := dispatcher.Dispatch(ctx, due); err != nil {
		// Non-fatal: pending domains are re-selected once their
		// interval elapses again.
		s.logger.Warn("dispatch reported errors",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}

	return len(due), nil
}

// SweepStaleBatches marks batches that never completed as abandoned.
// Stale batches are an operational signal, not an error.
func (s *Scheduler) SweepStaleBatches(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.config.StaleBatchAfter)
	n, err := s.store.AbandonStaleBatches(ctx, cutoff)
	if err != nil {
		s.logger.Error("stale batch sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.metrics.RecordBatchesAbandoned(n)
		s.logger.Warn("abandoned stale check batches", zap.Int64("count", n))
	}
}
