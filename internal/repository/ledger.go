package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

const ledgerColumns = `id, account_id, amount, source, description, created_at`

// LedgerRepository handles the append-only point transaction ledger.
// Entries are never updated or deleted; corrections are offsetting entries.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append inserts a new ledger entry. Zero-amount entries are rejected: they
// would be noise in the audit trail and usually signal a misconfigured
// per-currency rule applied to a zero service value.
func (r *LedgerRepository) Append(ctx context.Context, accountID int64, amount int64, source string, description *string) (*model.LedgerEntry, error) {
	if amount == 0 {
		return nil, ErrZeroEntryAmount
	}
	const query = `
		INSERT INTO ledger_entries (account_id, amount, source, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + ledgerColumns

	var e model.LedgerEntry
	err := r.pool.QueryRow(ctx, query, accountID, amount, source, description).Scan(
		&e.ID,
		&e.AccountID,
		&e.Amount,
		&e.Source,
		&e.Description,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return &e, nil
}

// ListByAccount returns an account's entries, newest first. A nil since
// returns the full history; otherwise only entries created after since.
// Used for both audit display and the anti-fraud lookback.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, since *time.Time) ([]model.LedgerEntry, error) {
	const query = `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE account_id = $1 AND ($2::timestamptz IS NULL OR created_at > $2)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.Amount,
			&e.Source,
			&e.Description,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

// SumByAccount returns the exact ledger sum for an account. This is the
// canonical balance; the accounts.balance column is only a cache of it.
func (r *LedgerRepository) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return sum, nil
}

// CountByAccount returns how many entries an account has. Used by tests and
// audit views.
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}
