package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order at startup. Each statement is idempotent
// so restarting the service against an existing database is safe.
var migrations = []struct {
	name string
	stmt string
}{
	{
		name: "accounts",
		stmt: `
			CREATE TABLE IF NOT EXISTS accounts (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				balance BIGINT NOT NULL DEFAULT 0,
				referral_code VARCHAR(32) NOT NULL DEFAULT '',
				referred_by VARCHAR(32),
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_referral_code
				ON accounts(referral_code) WHERE referral_code <> '';
			CREATE INDEX IF NOT EXISTS idx_accounts_referred_by ON accounts(referred_by);
		`,
	},
	{
		name: "ledger_entries",
		stmt: `
			CREATE TABLE IF NOT EXISTS ledger_entries (
				id BIGSERIAL PRIMARY KEY,
				account_id BIGINT NOT NULL REFERENCES accounts(id),
				amount BIGINT NOT NULL,
				source VARCHAR(50) NOT NULL,
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_ledger_account_time
				ON ledger_entries(account_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_ledger_source_time
				ON ledger_entries(source, created_at DESC);
		`,
	},
	{
		name: "reward_rules",
		stmt: `
			CREATE TABLE IF NOT EXISTS reward_rules (
				code VARCHAR(50) PRIMARY KEY,
				description TEXT NOT NULL DEFAULT '',
				points DOUBLE PRECISION NOT NULL,
				per_amount_cents BIGINT NOT NULL DEFAULT 0,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "loyalty_tiers",
		stmt: `
			CREATE TABLE IF NOT EXISTS loyalty_tiers (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL UNIQUE,
				min_points BIGINT NOT NULL UNIQUE
			);
		`,
	},
	{
		name: "rewards",
		stmt: `
			CREATE TABLE IF NOT EXISTS rewards (
				id BIGSERIAL PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				category VARCHAR(100) NOT NULL DEFAULT '',
				points_cost BIGINT NOT NULL,
				stock INT,
				rules TEXT NOT NULL DEFAULT '',
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "campaigns",
		stmt: `
			CREATE TABLE IF NOT EXISTS campaigns (
				id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				multiplier INT NOT NULL,
				target_tiers TEXT[] NOT NULL DEFAULT '{}',
				active BOOLEAN NOT NULL DEFAULT FALSE,
				starts_at TIMESTAMPTZ,
				ends_at TIMESTAMPTZ,
				notify_title VARCHAR(255) NOT NULL DEFAULT '',
				notify_body TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		name: "appointments",
		stmt: `
			CREATE TABLE IF NOT EXISTS appointments (
				id BIGSERIAL PRIMARY KEY,
				account_id BIGINT NOT NULL REFERENCES accounts(id),
				service_name VARCHAR(255) NOT NULL,
				amount_cents BIGINT NOT NULL DEFAULT 0,
				scheduled_at TIMESTAMPTZ NOT NULL,
				status VARCHAR(30) NOT NULL DEFAULT 'scheduled',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_appointments_account
				ON appointments(account_id, scheduled_at DESC);
		`,
	},
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.stmt); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("Migration applied")
	}
	return nil
}

// SeedDefaults inserts the club's standard tier table and reward rules into
// an empty database. Existing rows are left untouched so admin edits
// survive restarts.
func SeedDefaults(ctx context.Context, pool *pgxpool.Pool) error {
	const seedTiers = `
		INSERT INTO loyalty_tiers (name, min_points)
		SELECT v.name, v.min_points
		FROM (VALUES
			('Select', 0::bigint),
			('Prime', 500::bigint),
			('Signature', 1500::bigint),
			('Privé Elite', 3000::bigint)
		) AS v(name, min_points)
		WHERE NOT EXISTS (SELECT 1 FROM loyalty_tiers)
	`
	if _, err := pool.Exec(ctx, seedTiers); err != nil {
		return fmt.Errorf("failed to seed tiers: %w", err)
	}

	const seedRules = `
		INSERT INTO reward_rules (code, description, points, per_amount_cents, active, updated_at)
		VALUES
			('BASE_GENERATION', '10 points per R$100 of completed services', 10, 10000, TRUE, NOW()),
			('REFERRAL', 'Referred friend enrolled', 200, 0, TRUE, NOW()),
			('CHECKIN', 'Arrival check-in', 50, 0, TRUE, NOW()),
			('STORY_INSTA', 'Story shared on Instagram', 50, 0, TRUE, NOW()),
			('STORY_STUDIO', 'Story shared in the studio app', 30, 0, TRUE, NOW()),
			('FIRST_FEEDBACK', 'First testimonial submitted', 100, 0, TRUE, NOW())
		ON CONFLICT (code) DO NOTHING
	`
	if _, err := pool.Exec(ctx, seedRules); err != nil {
		return fmt.Errorf("failed to seed reward rules: %w", err)
	}
	return nil
}
