package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
)

type fakePlanStore struct {
	active    *core.Plan
	activeErr error
	lowest    *core.Plan
	lowestErr error
}

func (f *fakePlanStore) ActivePlan(ctx context.Context, accountID uuid.UUID) (*core.Plan, error) {
	return f.active, f.activeErr
}

func (f *fakePlanStore) LowestTierPlan(ctx context.Context) (*core.Plan, error) {
	return f.lowest, f.lowestErr
}

func TestPolicyUsesActivePlan(t *testing.T) {
	store := &fakePlanStore{
		active: &core.Plan{Slug: "pro", MaxDomains: 100, CheckIntervalMinutes: 10},
		lowest: &core.Plan{Slug: "free", MaxDomains: 5, CheckIntervalMinutes: 60},
	}
	policy := NewPolicy(store, zap.NewNop())

	accountID := uuid.New()
	if got := policy.MaxDomains(context.Background(), accountID); got != 100 {
		t.Errorf("MaxDomains = %d, want 100", got)
	}
	if got := policy.CheckIntervalMinutes(context.Background(), accountID); got != 10 {
		t.Errorf("CheckIntervalMinutes = %d, want 10", got)
	}
}

func TestPolicyFallsBackToLowestTier(t *testing.T) {
	store := &fakePlanStore{
		activeErr: errors.New("no active subscription"),
		lowest:    &core.Plan{Slug: "free", MaxDomains: 5, CheckIntervalMinutes: 60},
	}
	policy := NewPolicy(store, zap.NewNop())

	if got := policy.MaxDomains(context.Background(), uuid.New()); got != 5 {
		t.Errorf("MaxDomains = %d, want 5", got)
	}
	if got := policy.CheckIntervalMinutes(context.Background(), uuid.New()); got != 60 {
		t.Errorf("CheckIntervalMinutes = %d, want 60", got)
	}
}

func TestPolicyBuiltInFallback(t *testing.T) {
	store := &fakePlanStore{
		activeErr: errors.New("db down"),
		lowestErr: errors.New("db down"),
	}
	policy := NewPolicy(store, zap.NewNop())

	if got := policy.MaxDomains(context.Background(), uuid.New()); got != fallbackMaxDomains {
		t.Errorf("MaxDomains = %d, want %d", got, fallbackMaxDomains)
	}
	if got := policy.CheckIntervalMinutes(context.Background(), uuid.New()); got != fallbackCheckIntervalMinutes {
		t.Errorf("CheckIntervalMinutes = %d, want %d", got, fallbackCheckIntervalMinutes)
	}
}
