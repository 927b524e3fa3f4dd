package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

const ruleColumns = `code, description, points, per_amount_cents, active, updated_at`

// RuleRepository handles the admin-configured reward rule registry.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a new RuleRepository instance.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

func scanRule(row pgx.Row) (*model.RewardRule, error) {
	var rule model.RewardRule
	err := row.Scan(
		&rule.Code,
		&rule.Description,
		&rule.Points,
		&rule.PerAmountCents,
		&rule.Active,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// GetByCode retrieves a rule by its action code.
// Returns ErrRuleNotFound if no rule exists for the code.
func (r *RuleRepository) GetByCode(ctx context.Context, code string) (*model.RewardRule, error) {
	const query = `SELECT ` + ruleColumns + ` FROM reward_rules WHERE code = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get reward rule: %w", err)
	}
	return rule, nil
}

// List returns all rules ordered by code.
func (r *RuleRepository) List(ctx context.Context) ([]model.RewardRule, error) {
	const query = `SELECT ` + ruleColumns + ` FROM reward_rules ORDER BY code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward rules: %w", err)
	}
	defer rows.Close()

	var rules []model.RewardRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reward rules: %w", err)
	}
	return rules, nil
}

// Upsert creates a rule or updates its value, description and rate.
// Historical ledger entries are untouched: action codes are soft references.
func (r *RuleRepository) Upsert(ctx context.Context, rule *model.RewardRule) (*model.RewardRule, error) {
	const query = `
		INSERT INTO reward_rules (code, description, points, per_amount_cents, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (code) DO UPDATE SET
			description = EXCLUDED.description,
			points = EXCLUDED.points,
			per_amount_cents = EXCLUDED.per_amount_cents,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING ` + ruleColumns

	saved, err := scanRule(r.pool.QueryRow(ctx, query,
		rule.Code, rule.Description, rule.Points, rule.PerAmountCents, rule.Active))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert reward rule: %w", err)
	}
	return saved, nil
}

// SetActive toggles a rule. Deactivating stops future grants only.
func (r *RuleRepository) SetActive(ctx context.Context, code string, active bool) error {
	const query = `
		UPDATE reward_rules
		SET active = $2, updated_at = NOW()
		WHERE code = $1
	`

	result, err := r.pool.Exec(ctx, query, code, active)
	if err != nil {
		return fmt.Errorf("failed to toggle reward rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}
