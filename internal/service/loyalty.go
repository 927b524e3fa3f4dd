// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prive-club/internal/config"
	"prive-club/internal/loyalty"
	"prive-club/internal/model"
	"prive-club/internal/pkg/lock"
	"prive-club/internal/repository"
)

// Common errors for loyalty operations.
var (
	ErrAccountInactive = errors.New("account is deactivated")
	ErrRuleInactive    = errors.New("reward rule is inactive")
	ErrZeroAdjustment  = errors.New("adjustment amount must be non-zero")
)

// GrantResult describes the outcome of a point grant attempt. A Skipped
// result is not an error: the anti-fraud gate declined a duplicate action
// inside its cooldown window and the ledger was left untouched.
type GrantResult struct {
	Entry      *model.LedgerEntry
	Amount     int64
	Multiplier int
	Skipped    bool
	SkipReason string
	Balance    int64
}

// AccountSummary is the member-facing view of an account: reconciled
// balance, current tier and progress toward the next one.
type AccountSummary struct {
	Account      *model.Account
	Balance      int64
	Tier         model.Tier
	NextTier     *model.Tier
	PointsToNext int64
	NearUpgrade  bool
}

// LoyaltyService is the accrual engine. Every grant runs the same pipeline:
// resolve the rule, compute the base amount, apply the best campaign
// multiplier, pass the anti-fraud gate, append to the ledger and reconcile
// the cached balance. The whole pipeline holds the account's lock so two
// concurrent grants for the same action cannot both pass the gate.
type LoyaltyService struct {
	accountRepo  *repository.AccountRepository
	ledgerRepo   *repository.LedgerRepository
	ruleRepo     *repository.RuleRepository
	tierRepo     *repository.TierRepository
	campaignRepo *repository.CampaignRepository
	locker       lock.Locker
	cfg          config.LoyaltyConfig
}

// NewLoyaltyService creates a new LoyaltyService instance.
func NewLoyaltyService(
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	ruleRepo *repository.RuleRepository,
	tierRepo *repository.TierRepository,
	campaignRepo *repository.CampaignRepository,
	locker lock.Locker,
	cfg config.LoyaltyConfig,
) *LoyaltyService {
	return &LoyaltyService{
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		ruleRepo:     ruleRepo,
		tierRepo:     tierRepo,
		campaignRepo: campaignRepo,
		locker:       locker,
		cfg:          cfg,
	}
}

// classFor returns the anti-fraud action class and cooldown for a source.
// A nil class means the source is ungated: base generation, referrals and
// admin adjustments are driven by real-world events that carry their own
// dedup (an appointment completes once, a friend signs up once).
func (s *LoyaltyService) classFor(source string) ([]string, int) {
	switch source {
	case model.SourceCheckin:
		return []string{model.SourceCheckin}, s.cfg.CheckinCooldownHours
	case model.SourceStoryInsta, model.SourceStoryStudio,
		model.SourceStoryShareLegacy, model.SourceAppStoryShareLegacy:
		return model.StoryClass(), s.cfg.StoryCooldownHours
	case model.SourceFirstFeedback:
		// once ever
		return []string{model.SourceFirstFeedback}, 0
	default:
		return nil, 0
	}
}

// Grant awards points to an account for an action code. serviceAmountCents
// is only consulted by per-currency rules and may be zero otherwise.
func (s *LoyaltyService) Grant(ctx context.Context, accountID int64, code string, serviceAmountCents int64, description *string) (*GrantResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}

	rule, err := s.ruleRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !rule.Active {
		return nil, ErrRuleInactive
	}

	var result *GrantResult
	err = s.locker.WithLock(ctx, accountID, func() error {
		var lockErr error
		result, lockErr = s.grantLocked(ctx, account, rule, serviceAmountCents, description)
		return lockErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LoyaltyService) grantLocked(ctx context.Context, account *model.Account, rule *model.RewardRule, serviceAmountCents int64, description *string) (*GrantResult, error) {
	now := time.Now()

	if class, cooldownHours := s.classFor(rule.Code); class != nil {
		var since *time.Time
		if cooldownHours > 0 {
			cutoff := now.Add(-time.Duration(cooldownHours) * time.Hour)
			since = &cutoff
		}
		entries, err := s.ledgerRepo.ListByAccount(ctx, account.ID, since)
		if err != nil {
			return nil, err
		}
		if !loyalty.Eligible(entries, class, cooldownHours, now) {
			balance, err := s.ledgerRepo.SumByAccount(ctx, account.ID)
			if err != nil {
				return nil, err
			}
			return &GrantResult{
				Skipped:    true,
				SkipReason: fmt.Sprintf("action %s already rewarded within its window", rule.Code),
				Multiplier: 1,
				Balance:    balance,
			}, nil
		}
	}

	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	tier := resolver.Resolve(account.Balance)

	campaigns, err := s.campaignRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	multiplier := loyalty.BestMultiplier(tier.Name, campaigns, now)

	base := loyalty.RuleBaseAmount(rule, serviceAmountCents)
	amount := loyalty.ApplyMultiplier(base, multiplier)

	entry, err := s.ledgerRepo.Append(ctx, account.ID, amount, rule.Code, description)
	if err != nil {
		return nil, err
	}
	balance, err := s.accountRepo.Reconcile(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &GrantResult{
		Entry:      entry,
		Amount:     amount,
		Multiplier: multiplier,
		Balance:    balance,
	}, nil
}

// AdminAdjust appends a signed manual correction to the ledger. Corrections
// never rewrite history: a mistaken grant is offset, not deleted.
func (s *LoyaltyService) AdminAdjust(ctx context.Context, accountID int64, amount int64, description *string) (*GrantResult, error) {
	if amount == 0 {
		return nil, ErrZeroAdjustment
	}
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	var result *GrantResult
	err := s.locker.WithLock(ctx, accountID, func() error {
		entry, err := s.ledgerRepo.Append(ctx, accountID, amount, model.SourceAdminAdjust, description)
		if err != nil {
			return err
		}
		balance, err := s.accountRepo.Reconcile(ctx, accountID)
		if err != nil {
			return err
		}
		result = &GrantResult{Entry: entry, Amount: amount, Multiplier: 1, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile recomputes the cached balance from the ledger sum and returns
// it. Safe to run at any time; repeated runs are no-ops.
func (s *LoyaltyService) Reconcile(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := s.locker.WithLock(ctx, accountID, func() error {
		var lockErr error
		balance, lockErr = s.accountRepo.Reconcile(ctx, accountID)
		return lockErr
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// History returns an account's ledger entries, newest first. A nil since
// returns the full history.
func (s *LoyaltyService) History(ctx context.Context, accountID int64, since *time.Time) ([]model.LedgerEntry, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListByAccount(ctx, accountID, since)
}

// Summary builds the member-facing account view. The balance is read from
// the ledger sum, not the cache, so the summary is always consistent with
// the history shown next to it.
func (s *LoyaltyService) Summary(ctx context.Context, accountID int64) (*AccountSummary, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledgerRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		Account:      account,
		Balance:      balance,
		Tier:         resolver.Resolve(balance),
		PointsToNext: resolver.PointsToNext(balance),
		NearUpgrade:  resolver.NearUpgrade(balance, s.cfg.NearUpgradeFraction),
	}
	if next, ok := resolver.Next(balance); ok {
		summary.NextTier = &next
	}
	return summary, nil
}

// Tiers returns the validated tier table in ascending order.
func (s *LoyaltyService) Tiers(ctx context.Context) ([]model.Tier, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	return resolver.Tiers(), nil
}

func (s *LoyaltyService) resolver(ctx context.Context) (*loyalty.Resolver, error) {
	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := loyalty.NewResolver(tiers)
	if err != nil {
		return nil, fmt.Errorf("invalid tier table: %w", err)
	}
	return resolver, nil
}
