package service

import (
	"context"
	"errors"
	"fmt"

	"prive-club/internal/loyalty"
	"prive-club/internal/model"
	"prive-club/internal/repository"
)

// Common errors for admin configuration.
var (
	ErrInvalidRule       = errors.New("rule needs a code and a positive point value")
	ErrInvalidMultiplier = errors.New("campaign multiplier must be at least 2")
	ErrInvalidCost       = errors.New("reward cost must be positive")
)

// AdminService manages the club's configuration: reward rules, the tier
// table, the reward catalog and campaigns. Every write is validated here so
// the engine can trust what it reads back.
type AdminService struct {
	ruleRepo     *repository.RuleRepository
	tierRepo     *repository.TierRepository
	rewardRepo   *repository.RewardRepository
	campaignRepo *repository.CampaignRepository
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(
	ruleRepo *repository.RuleRepository,
	tierRepo *repository.TierRepository,
	rewardRepo *repository.RewardRepository,
	campaignRepo *repository.CampaignRepository,
) *AdminService {
	return &AdminService{
		ruleRepo:     ruleRepo,
		tierRepo:     tierRepo,
		rewardRepo:   rewardRepo,
		campaignRepo: campaignRepo,
	}
}

// Rules lists every configured reward rule.
func (s *AdminService) Rules(ctx context.Context) ([]model.RewardRule, error) {
	return s.ruleRepo.List(ctx)
}

// UpsertRule creates or updates a rule. Rule edits apply to future grants
// only; the ledger keeps whatever past rules produced.
func (s *AdminService) UpsertRule(ctx context.Context, rule *model.RewardRule) (*model.RewardRule, error) {
	if rule.Code == "" || rule.Points <= 0 {
		return nil, ErrInvalidRule
	}
	if rule.PerAmountCents < 0 {
		return nil, ErrInvalidRule
	}
	return s.ruleRepo.Upsert(ctx, rule)
}

// SetRuleActive toggles a rule on or off.
func (s *AdminService) SetRuleActive(ctx context.Context, code string, active bool) error {
	return s.ruleRepo.SetActive(ctx, code, active)
}

// ReplaceTiers swaps the tier table after validating it. A table that the
// resolver rejects never reaches storage.
func (s *AdminService) ReplaceTiers(ctx context.Context, tiers []model.Tier) ([]model.Tier, error) {
	resolver, err := loyalty.NewResolver(tiers)
	if err != nil {
		return nil, fmt.Errorf("invalid tier table: %w", err)
	}
	validated := resolver.Tiers()
	if err := s.tierRepo.Replace(ctx, validated); err != nil {
		return nil, err
	}
	return s.tierRepo.List(ctx)
}

// CreateReward adds a catalog reward.
func (s *AdminService) CreateReward(ctx context.Context, reward *model.Reward) (*model.Reward, error) {
	if reward.PointsCost <= 0 {
		return nil, ErrInvalidCost
	}
	return s.rewardRepo.Create(ctx, reward)
}

// UpdateReward replaces a reward's editable fields.
func (s *AdminService) UpdateReward(ctx context.Context, reward *model.Reward) (*model.Reward, error) {
	if reward.PointsCost <= 0 {
		return nil, ErrInvalidCost
	}
	return s.rewardRepo.Update(ctx, reward)
}

// Campaigns lists every campaign, newest first.
func (s *AdminService) Campaigns(ctx context.Context) ([]model.Campaign, error) {
	return s.campaignRepo.List(ctx)
}

// CreateCampaign stores a new campaign in the inactive state. A multiplier
// of 1 would be a no-op campaign, so the minimum is 2.
func (s *AdminService) CreateCampaign(ctx context.Context, campaign *model.Campaign) (*model.Campaign, error) {
	if campaign.Multiplier < 2 {
		return nil, ErrInvalidMultiplier
	}
	return s.campaignRepo.Create(ctx, campaign)
}

// SetCampaignActive toggles a campaign and returns its updated state, so
// the caller can announce an activation.
func (s *AdminService) SetCampaignActive(ctx context.Context, campaignID int64, active bool) (*model.Campaign, error) {
	return s.campaignRepo.SetActive(ctx, campaignID, active)
}
