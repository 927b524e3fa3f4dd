// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrZeroEntryAmount     = errors.New("ledger entry amount must be non-zero")
	ErrRuleNotFound        = errors.New("reward rule not found")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrStatusConflict      = errors.New("appointment status changed concurrently")
)

const accountColumns = `id, name, balance, referral_code, referred_by, active, created_at, updated_at`

// AccountRepository handles account persistence.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Balance,
		&a.ReferralCode,
		&a.ReferredBy,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new account with zero balance. The referral code is
// assigned afterwards via SetReferralCode because it is derived from the
// generated ID.
func (r *AccountRepository) Create(ctx context.Context, name string, referredBy *string) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (name, balance, referral_code, referred_by, active, created_at, updated_at)
		VALUES ($1, 0, '', $2, TRUE, NOW(), NOW())
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, name, referredBy))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// SetReferralCode stores the account's referral code.
func (r *AccountRepository) SetReferralCode(ctx context.Context, accountID int64, code string) error {
	const query = `
		UPDATE accounts
		SET referral_code = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, accountID, code)
	if err != nil {
		return fmt.Errorf("failed to set referral code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// GetByID retrieves an account by ID.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, accountID int64) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByReferralCode retrieves the account owning a referral code.
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE referral_code = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account by referral code: %w", err)
	}
	return account, nil
}

// ListReferredBy returns accounts that signed up with the given code.
func (r *AccountRepository) ListReferredBy(ctx context.Context, code string) ([]*model.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE referred_by = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, code)
}

// List returns all active accounts ordered by name.
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE active
		ORDER BY name
	`
	return r.list(ctx, query)
}

func (r *AccountRepository) list(ctx context.Context, query string, args ...any) ([]*model.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// IncrementBalance adjusts the cached balance by the given amount. This is
// the fast display path only; Reconcile is the authoritative write.
func (r *AccountRepository) IncrementBalance(ctx context.Context, accountID int64, amount int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, accountID, amount))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to increment balance: %w", err)
	}
	return account, nil
}

// Reconcile overwrites the cached balance with the ledger sum and returns
// the reconciled balance. The operation is idempotent: the ledger is the
// source of truth, the cache is never written back into it.
func (r *AccountRepository) Reconcile(ctx context.Context, accountID int64) (int64, error) {
	const query = `
		UPDATE accounts
		SET balance = COALESCE((
			SELECT SUM(amount) FROM ledger_entries WHERE account_id = $1
		), 0), updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to reconcile balance: %w", err)
	}
	return balance, nil
}

// Deactivate marks an account inactive. Accounts are never deleted.
func (r *AccountRepository) Deactivate(ctx context.Context, accountID int64) error {
	const query = `
		UPDATE accounts
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Exists checks whether an account with the given ID exists.
func (r *AccountRepository) Exists(ctx context.Context, accountID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}
