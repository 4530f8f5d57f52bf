package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/domainwatch/domainwatch/internal/core"
)

// Tx wraps one database transaction with the typed operations the
// applier and incident tracker run inside it.
type Tx struct {
	tx *sqlx.Tx
}

// DomainForUpdate loads a domain under a row lock, serializing
// concurrent applies for the same domain.
func (t *Tx) DomainForUpdate(ctx context.Context, id uuid.UUID) (*core.Domain, error) {
	var domain core.Domain
	query := `SELECT * FROM domains WHERE id = $1 FOR UPDATE`

	err := t.tx.GetContext(ctx, &domain, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

func (t *Tx) SaveDomainCheck(ctx context.Context, d *core.Domain) error {
	query := `
        UPDATE domains SET
            status = :status,
            status_since = :status_since,
            last_checked_at = :last_checked_at,
            last_up_at = :last_up_at,
            last_down_at = :last_down_at,
            ssl_valid = :ssl_valid,
            last_check_error = :last_check_error,
            updated_at = NOW()
        WHERE id = :id`

	_, err := t.tx.NamedExecContext(ctx, query, d)
	return err
}

// IncrementBatchProcessed advances the account's oldest in-flight
// batch. The increment is a single atomic statement; completed_at and
// status flip exactly when processed reaches total. No matching batch
// is not an error: offload results can arrive for abandoned rounds.
func (t *Tx) IncrementBatchProcessed(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	query := `
        UPDATE check_batches SET
            processed_domains = processed_domains + 1,
            status = CASE WHEN processed_domains + 1 >= total_domains THEN 'completed' ELSE status END,
            completed_at = CASE WHEN processed_domains + 1 >= total_domains THEN $2 ELSE completed_at END
        WHERE id = (
            SELECT id FROM check_batches
            WHERE account_id = $1 AND status = 'scheduled' AND processed_domains < total_domains
            ORDER BY scheduled_for ASC
            LIMIT 1
        )`

	_, err := t.tx.ExecContext(ctx, query, accountID, at)
	return err
}

func (t *Tx) OpenIncidents(ctx context.Context, domainID uuid.UUID) ([]*core.DomainIncident, error) {
	incidents := []*core.DomainIncident{}
	query := `
        SELECT * FROM domain_incidents
        WHERE domain_id = $1 AND closed_at IS NULL
        FOR UPDATE`

	err := t.tx.SelectContext(ctx, &incidents, query, domainID)
	return incidents, err
}

func (t *Tx) CreateIncident(ctx context.Context, inc *core.DomainIncident) error {
	query := `
        INSERT INTO domain_incidents (
            id, account_id, domain_id, status_before, status_after,
            opened_at, closed_at, message
        ) VALUES (
            :id, :account_id, :domain_id, :status_before, :status_after,
            :opened_at, :closed_at, :message
        )`

	_, err := t.tx.NamedExecContext(ctx, query, inc)
	return err
}

func (t *Tx) UpdateIncident(ctx context.Context, inc *core.DomainIncident) error {
	query := `
        UPDATE domain_incidents SET
            status_after = :status_after,
            closed_at = :closed_at,
            message = :message
        WHERE id = :id`

	_, err := t.tx.NamedExecContext(ctx, query, inc)
	return err
}
