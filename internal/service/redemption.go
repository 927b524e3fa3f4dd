package service

import (
	"context"
	"errors"
	"fmt"

	"prive-club/internal/model"
	"prive-club/internal/pkg/lock"
	"prive-club/internal/repository"
)

// Common errors for redemption operations.
var (
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrRewardInactive      = errors.New("reward is not available")
)

// RedemptionResult is a completed redemption: the debit entry and the
// balance left after it.
type RedemptionResult struct {
	Entry   *model.LedgerEntry
	Reward  *model.Reward
	Balance int64
}

// RedemptionService spends points on catalog rewards. The balance check and
// the debit run under the account's lock against the reconciled ledger sum,
// so two concurrent redemptions cannot both spend the same points and a
// stale cached balance cannot approve an overdraft.
type RedemptionService struct {
	accountRepo *repository.AccountRepository
	rewardRepo  *repository.RewardRepository
	ledgerRepo  *repository.LedgerRepository
	locker      lock.Locker
}

// NewRedemptionService creates a new RedemptionService instance.
func NewRedemptionService(
	accountRepo *repository.AccountRepository,
	rewardRepo *repository.RewardRepository,
	ledgerRepo *repository.LedgerRepository,
	locker lock.Locker,
) *RedemptionService {
	return &RedemptionService{
		accountRepo: accountRepo,
		rewardRepo:  rewardRepo,
		ledgerRepo:  ledgerRepo,
		locker:      locker,
	}
}

// Redeem exchanges points for a reward. On insufficient balance nothing is
// written: there are no partial debits.
func (s *RedemptionService) Redeem(ctx context.Context, accountID int64, rewardID int64) (*RedemptionResult, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}

	reward, err := s.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, ErrRewardInactive
	}

	var result *RedemptionResult
	err = s.locker.WithLock(ctx, accountID, func() error {
		balance, err := s.accountRepo.Reconcile(ctx, accountID)
		if err != nil {
			return err
		}
		if balance < reward.PointsCost {
			return ErrInsufficientBalance
		}

		desc := fmt.Sprintf("redeemed: %s", reward.Title)
		entry, err := s.ledgerRepo.Append(ctx, accountID, -reward.PointsCost, model.SourceRedemption, &desc)
		if err != nil {
			return err
		}
		remaining, err := s.accountRepo.Reconcile(ctx, accountID)
		if err != nil {
			return err
		}
		result = &RedemptionResult{Entry: entry, Reward: reward, Balance: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Catalog lists redeemable rewards, cheapest first. Admins see disabled
// entries too.
func (s *RedemptionService) Catalog(ctx context.Context, includeInactive bool) ([]model.Reward, error) {
	return s.rewardRepo.List(ctx, !includeInactive)
}
