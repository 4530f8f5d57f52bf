package plan

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
)

// Fallback limits used when even the lowest-tier plan cannot be
// resolved. Deliberately the most conservative values in the catalog.
const (
	fallbackMaxDomains           = 5
	fallbackCheckIntervalMinutes = 60
)

// Store resolves an account's active subscription to its plan.
type Store interface {
	ActivePlan(ctx context.Context, accountID uuid.UUID) (*core.Plan, error)
	LowestTierPlan(ctx context.Context) (*core.Plan, error)
}

// Policy answers plan-bound limits for an account. It never fails: any
// ambiguity degrades to the lowest-tier plan so the scheduler keeps
// running.
type Policy struct {
	store  Store
	logger *zap.Logger
}

func NewPolicy(store Store, logger *zap.Logger) *Policy {
	return &Policy{store: store, logger: logger}
}

func (p *Policy) MaxDomains(ctx context.Context, accountID uuid.UUID) int {
	return p.resolve(ctx, accountID).MaxDomains
}

func (p *Policy) CheckIntervalMinutes(ctx context.Context, accountID uuid.UUID) int {
	return p.resolve(ctx, accountID).CheckIntervalMinutes
}

func (p *Policy) resolve(ctx context.Context, accountID uuid.UUID) *core.Plan {
	plan, err := p.store.ActivePlan(ctx, accountID)
	if err == nil && plan != nil {
		return plan
	}
	if err != nil {
		p.logger.Debug("active plan lookup failed, falling back to lowest tier",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
	}

	lowest, err := p.store.LowestTierPlan(ctx)
	if err == nil && lowest != nil {
		return lowest
	}
	if err != nil {
		p.logger.Warn("lowest-tier plan lookup failed, using built-in defaults", zap.Error(err))
	}

	return &core.Plan{
		Slug:                 "fallback",
		MaxDomains:           fallbackMaxDomains,
		CheckIntervalMinutes: fallbackCheckIntervalMinutes,
	}
}
