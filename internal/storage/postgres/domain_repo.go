package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/domainwatch/domainwatch/internal/core"
)

// DueDomains selects an account's domains whose interval has elapsed,
// oldest-checked first so no domain starves. With force set the
// interval filter is bypassed; the batch cap still applies.
func (r *Repository) DueDomains(ctx context.Context, accountID uuid.UUID, intervalMinutes, limit int, force bool) ([]*core.Domain, error) {
	domains := []*core.Domain{}
	query := `
        SELECT * FROM domains
        WHERE account_id = $1
        AND (
            $4
            OR last_checked_at IS NULL
            OR last_checked_at <= NOW() - make_interval(mins => $2)
        )
        ORDER BY last_checked_at ASC NULLS FIRST
        LIMIT $3`

	err := r.db.SelectContext(ctx, &domains, query, accountID, intervalMinutes, limit, force)
	return domains, err
}

// DueDomainsAll is the read-only global due selection polled by the
// offload worker fleet. The same due rule as DueDomains, with each
// account's plan interval resolved in the query and the lowest-tier
// plan as fallback. No side effects on domain state.
func (r *Repository) DueDomainsAll(ctx context.Context, limit int) ([]core.DueDomain, error) {
	due := []core.DueDomain{}
	query := `
        SELECT d.id, d.name, d.campaign, d.account_id
        FROM domains d
        JOIN accounts a ON a.id = d.account_id
        LEFT JOIN subscriptions s ON s.account_id = a.id AND s.status = 'active'
        LEFT JOIN plans p ON p.id = s.plan_id
        WHERE a.is_active = true
        AND (
            d.last_checked_at IS NULL
            OR d.last_checked_at <= NOW() - make_interval(mins => COALESCE(
                p.check_interval_minutes,
                (SELECT check_interval_minutes FROM plans WHERE is_active = true ORDER BY max_domains ASC LIMIT 1)
            ))
        )
        ORDER BY d.last_checked_at ASC NULLS FIRST
        LIMIT $1`

	err := r.db.SelectContext(ctx, &due, query, limit)
	return due, err
}

// MarkPending queues domains for checking. status_since moves only for
// domains not already pending.
func (r *Repository) MarkPending(ctx context.Context, ids []uuid.UUID, now time.Time) error {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	query := `
        UPDATE domains SET
            status_since = CASE WHEN status <> 'pending' THEN $2 ELSE status_since END,
            status = 'pending',
            last_check_error = 'Queued for check',
            updated_at = $2
        WHERE id = ANY($1::uuid[])`

	_, err := r.db.ExecContext(ctx, query, pq.Array(strIDs), now)
	return err
}

func (r *Repository) DomainsForEnrichment(ctx context.Context, limit int) ([]*core.Domain, error) {
	domains := []*core.Domain{}
	query := `
        SELECT d.* FROM domains d
        JOIN accounts a ON a.id = d.account_id
        WHERE a.is_active = true
        ORDER BY d.updated_at ASC
        LIMIT $1`

	err := r.db.SelectContext(ctx, &domains, query, limit)
	return domains, err
}

func (r *Repository) UpdateDomainEnrichment(ctx context.Context, id uuid.UUID, ips []string, expiresAt *time.Time) error {
	query := `
        UPDATE domains SET
            resolved_ips = COALESCE($2, resolved_ips),
            domain_expires_at = COALESCE($3, domain_expires_at),
            updated_at = NOW()
        WHERE id = $1`

	var ipsValue interface{}
	if ips != nil {
		ipsValue = core.StringSlice(ips)
	}

	_, err := r.db.ExecContext(ctx, query, id, ipsValue, expiresAt)
	return err
}
