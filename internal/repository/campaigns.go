package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prive-club/internal/model"
)

const campaignColumns = `id, name, multiplier, target_tiers, active, starts_at, ends_at, notify_title, notify_body, created_at`

// CampaignRepository handles accrual multiplier campaigns.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository creates a new CampaignRepository instance.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

func scanCampaign(row pgx.Row) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Multiplier,
		&c.TargetTiers,
		&c.Active,
		&c.StartsAt,
		&c.EndsAt,
		&c.NotifyTitle,
		&c.NotifyBody,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByID retrieves a campaign by ID.
func (r *CampaignRepository) GetByID(ctx context.Context, campaignID int64) (*model.Campaign, error) {
	const query = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query, campaignID))
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// List returns all campaigns, newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]model.Campaign, error) {
	const query = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// ListActive returns campaigns whose active flag is set. Window filtering
// (starts_at/ends_at against now) is the model's concern via InEffect, so
// the multiplier decision stays testable without a database.
func (r *CampaignRepository) ListActive(ctx context.Context) ([]model.Campaign, error) {
	const query = `SELECT ` + campaignColumns + ` FROM campaigns WHERE active ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *CampaignRepository) list(ctx context.Context, query string) ([]model.Campaign, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}
	return campaigns, nil
}

// Create inserts a new campaign, inactive until explicitly activated.
func (r *CampaignRepository) Create(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error) {
	const query = `
		INSERT INTO campaigns (name, multiplier, target_tiers, active, starts_at, ends_at, notify_title, notify_body, created_at)
		VALUES ($1, $2, $3, FALSE, $4, $5, $6, $7, NOW())
		RETURNING ` + campaignColumns

	saved, err := scanCampaign(r.pool.QueryRow(ctx, query,
		campaign.Name, campaign.Multiplier, campaign.TargetTiers,
		campaign.StartsAt, campaign.EndsAt, campaign.NotifyTitle, campaign.NotifyBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return saved, nil
}

// SetActive toggles a campaign and returns its updated state.
func (r *CampaignRepository) SetActive(ctx context.Context, campaignID int64, active bool) (*model.Campaign, error) {
	const query = `
		UPDATE campaigns
		SET active = $2
		WHERE id = $1
		RETURNING ` + campaignColumns

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query, campaignID, active))
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to toggle campaign: %w", err)
	}
	return campaign, nil
}
