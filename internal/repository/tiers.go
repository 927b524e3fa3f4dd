package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

// TierRepository handles the loyalty tier threshold table. There is exactly
// one table for the whole club; resolver validation happens in the loyalty
// package, not here.
type TierRepository struct {
	pool *pgxpool.Pool
}

// NewTierRepository creates a new TierRepository instance.
func NewTierRepository(pool *pgxpool.Pool) *TierRepository {
	return &TierRepository{pool: pool}
}

// List returns all tiers ascending by threshold.
func (r *TierRepository) List(ctx context.Context) ([]model.Tier, error) {
	const query = `SELECT id, name, min_points FROM loyalty_tiers ORDER BY min_points`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.Tier
	for rows.Next() {
		var t model.Tier
		if err := rows.Scan(&t.ID, &t.Name, &t.MinPoints); err != nil {
			return nil, fmt.Errorf("failed to scan tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tiers: %w", err)
	}
	return tiers, nil
}

// Replace swaps the entire tier table atomically. Callers must have
// validated the new table with loyalty.NewResolver first, so a misordered
// table can never reach storage.
func (r *TierRepository) Replace(ctx context.Context, tiers []model.Tier) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tier replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM loyalty_tiers`); err != nil {
		return fmt.Errorf("failed to clear tiers: %w", err)
	}
	for _, t := range tiers {
		_, err := tx.Exec(ctx,
			`INSERT INTO loyalty_tiers (name, min_points) VALUES ($1, $2)`,
			t.Name, t.MinPoints)
		if err != nil {
			return fmt.Errorf("failed to insert tier %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tier replace: %w", err)
	}
	return nil
}
