package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/domainwatch/domainwatch/internal/core"
)

func (r *Repository) CreateBatch(ctx context.Context, batch *core.CheckBatch) error {
	query := `
        INSERT INTO check_batches (
            id, account_id, status, total_domains, processed_domains,
            scheduled_for, completed_at
        ) VALUES (
            :id, :account_id, :status, :total_domains, :processed_domains,
            :scheduled_for, :completed_at
        )`

	_, err := r.db.NamedExecContext(ctx, query, batch)
	return err
}

func (r *Repository) HasIncompleteBatch(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var exists bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM check_batches
            WHERE account_id = $1 AND status = 'scheduled'
        )`

	err := r.db.GetContext(ctx, &exists, query, accountID)
	return exists, err
}

// AbandonStaleBatches sweeps batches that never completed. Returns the
// number swept; stale batches are reported, never raised as errors.
func (r *Repository) AbandonStaleBatches(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
        UPDATE check_batches SET status = 'abandoned'
        WHERE status = 'scheduled' AND scheduled_for < $1`

	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
