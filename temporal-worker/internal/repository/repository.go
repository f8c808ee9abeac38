package repository

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS oracle_registrations (
	id         TEXT PRIMARY KEY,
	indexes    INTEGER[] NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Repository persists the worker's oracle registrations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the registrations table if it is missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveOracle stores or replaces a registration
func (r *Repository) SaveOracle(ctx context.Context, reg models.OracleRegistration) error {
	indexes := make([]int32, len(reg.Indexes))
	for i, idx := range reg.Indexes {
		indexes[i] = int32(idx)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO oracle_registrations (id, indexes)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET indexes = EXCLUDED.indexes, updated_at = NOW()
	`, reg.ID, indexes)
	if err != nil {
		return fmt.Errorf("failed to save oracle %s: %w", reg.ID, err)
	}
	return nil
}

// ListOracles returns the stored registrations whose id starts with prefix
func (r *Repository) ListOracles(ctx context.Context, prefix string) ([]models.OracleRegistration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, indexes
		FROM oracle_registrations
		WHERE id LIKE $1 || '%'
		ORDER BY id
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query oracles: %w", err)
	}

	regs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OracleRegistration, error) {
		var reg models.OracleRegistration
		var indexes []int32
		if err := row.Scan(&reg.ID, &indexes); err != nil {
			return reg, err
		}
		reg.Indexes = make([]int, len(indexes))
		for i, idx := range indexes {
			reg.Indexes[i] = int(idx)
		}
		return reg, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan oracles: %w", err)
	}
	return regs, nil
}
