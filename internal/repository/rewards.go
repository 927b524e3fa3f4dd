package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

const rewardColumns = `id, title, category, points_cost, stock, rules, active, created_at`

// RewardRepository handles the redeemable reward catalog.
type RewardRepository struct {
	pool *pgxpool.Pool
}

// NewRewardRepository creates a new RewardRepository instance.
func NewRewardRepository(pool *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{pool: pool}
}

func scanReward(row pgx.Row) (*model.Reward, error) {
	var reward model.Reward
	err := row.Scan(
		&reward.ID,
		&reward.Title,
		&reward.Category,
		&reward.PointsCost,
		&reward.Stock,
		&reward.Rules,
		&reward.Active,
		&reward.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	return &reward, nil
}

// GetByID retrieves a reward by ID.
func (r *RewardRepository) GetByID(ctx context.Context, rewardID int64) (*model.Reward, error) {
	const query = `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`

	reward, err := scanReward(r.pool.QueryRow(ctx, query, rewardID))
	if err != nil {
		if errors.Is(err, ErrRewardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return reward, nil
}

// List returns rewards ordered by point cost, cheapest first. With
// activeOnly, disabled catalog entries are filtered out.
func (r *RewardRepository) List(ctx context.Context, activeOnly bool) ([]model.Reward, error) {
	const query = `
		SELECT ` + rewardColumns + `
		FROM rewards
		WHERE NOT $1::bool OR active
		ORDER BY points_cost, id
	`

	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewards: %w", err)
	}
	return rewards, nil
}

// Create inserts a new catalog reward.
func (r *RewardRepository) Create(ctx context.Context, reward *model.Reward) (*model.Reward, error) {
	const query = `
		INSERT INTO rewards (title, category, points_cost, stock, rules, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + rewardColumns

	saved, err := scanReward(r.pool.QueryRow(ctx, query,
		reward.Title, reward.Category, reward.PointsCost, reward.Stock, reward.Rules, reward.Active))
	if err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}
	return saved, nil
}

// Update replaces a reward's editable fields.
func (r *RewardRepository) Update(ctx context.Context, reward *model.Reward) (*model.Reward, error) {
	const query = `
		UPDATE rewards
		SET title = $2, category = $3, points_cost = $4, stock = $5, rules = $6, active = $7
		WHERE id = $1
		RETURNING ` + rewardColumns

	saved, err := scanReward(r.pool.QueryRow(ctx, query,
		reward.ID, reward.Title, reward.Category, reward.PointsCost, reward.Stock, reward.Rules, reward.Active))
	if err != nil {
		if errors.Is(err, ErrRewardNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update reward: %w", err)
	}
	return saved, nil
}
