package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CounterRepository allocates collision-free sequential IDs from per-
// (school, prefix) counter cells. Allocation happens inside the caller's
// transaction so the counter increment commits or rolls back together with
// the entity it numbers.
type CounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository constructs the repository.
func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Allocate increments the counter within tx and returns the formatted ID,
// e.g. "S001". The single upsert statement serialises concurrent callers on
// the counter row; no application-level locking is involved.
func (r *CounterRepository) Allocate(ctx context.Context, tx *sqlx.Tx, schoolID, prefix string) (string, error) {
	query := `INSERT INTO counters (school_id, prefix, last_number)
VALUES ($1, $2, 1)
ON CONFLICT (school_id, prefix)
DO UPDATE SET last_number = counters.last_number + 1
RETURNING last_number`
	var next int
	if err := tx.GetContext(ctx, &next, query, schoolID, prefix); err != nil {
		return "", fmt.Errorf("allocate %s id: %w", prefix, err)
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

// Current returns the last allocated number for a prefix, zero when the
// cell does not exist yet.
func (r *CounterRepository) Current(ctx context.Context, schoolID, prefix string) (int, error) {
	var last int
	query := `SELECT COALESCE((SELECT last_number FROM counters WHERE school_id = $1 AND prefix = $2), 0)`
	if err := r.db.GetContext(ctx, &last, query, schoolID, prefix); err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return last, nil
}
