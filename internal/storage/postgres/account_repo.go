package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/domainwatch/domainwatch/internal/core"
)

func (r *Repository) AccountsWithDomains(ctx context.Context) ([]*core.Account, error) {
	accounts := []*core.Account{}
	query := `
        SELECT a.* FROM accounts a
        WHERE a.is_active = true
        AND EXISTS (SELECT 1 FROM domains d WHERE d.account_id = a.id)
        ORDER BY a.created_at`

	err := r.db.SelectContext(ctx, &accounts, query)
	return accounts, err
}

// ActivePlan resolves the plan behind the account's active
// subscription.
func (r *Repository) ActivePlan(ctx context.Context, accountID uuid.UUID) (*core.Plan, error) {
	var plan core.Plan
	query := `
        SELECT p.* FROM plans p
        JOIN subscriptions s ON s.plan_id = p.id
        WHERE s.account_id = $1 AND s.status = 'active'
        ORDER BY s.started_at DESC
        LIMIT 1`

	err := r.db.GetContext(ctx, &plan, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// LowestTierPlan is the conservative default when no active
// subscription resolves.
func (r *Repository) LowestTierPlan(ctx context.Context) (*core.Plan, error) {
	var plan core.Plan
	query := `
        SELECT * FROM plans
        WHERE is_active = true
        ORDER BY max_domains ASC, check_interval_minutes DESC
        LIMIT 1`

	err := r.db.GetContext(ctx, &plan, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
