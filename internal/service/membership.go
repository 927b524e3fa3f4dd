package service

import (
	"context"

	"prive-club/internal/loyalty"
	"prive-club/internal/model"
	"prive-club/internal/repository"
)

// Member is an account with its derived tier standing. Listing views use
// the cached balance; the per-account reconcile path keeps it honest.
type Member struct {
	Account      *model.Account
	Tier         model.Tier
	PointsToNext int64
}

// MembershipService builds admin-facing roster views across all accounts.
type MembershipService struct {
	accountRepo *repository.AccountRepository
	tierRepo    *repository.TierRepository
}

// NewMembershipService creates a new MembershipService instance.
func NewMembershipService(
	accountRepo *repository.AccountRepository,
	tierRepo *repository.TierRepository,
) *MembershipService {
	return &MembershipService{
		accountRepo: accountRepo,
		tierRepo:    tierRepo,
	}
}

// Members returns every active account with its resolved tier.
func (s *MembershipService) Members(ctx context.Context) ([]Member, error) {
	return s.members(ctx, 0, false)
}

// MembersNearUpgrade returns active accounts whose balance has reached the
// given fraction of the next tier threshold. Feeds the upgrade-proximity
// notification digest.
func (s *MembershipService) MembersNearUpgrade(ctx context.Context, fraction float64) ([]Member, error) {
	return s.members(ctx, fraction, true)
}

func (s *MembershipService) members(ctx context.Context, fraction float64, nearOnly bool) ([]Member, error) {
	tiers, err := s.tierRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := loyalty.NewResolver(tiers)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var members []Member
	for _, account := range accounts {
		if nearOnly && !resolver.NearUpgrade(account.Balance, fraction) {
			continue
		}
		members = append(members, Member{
			Account:      account,
			Tier:         resolver.Resolve(account.Balance),
			PointsToNext: resolver.PointsToNext(account.Balance),
		})
	}
	return members, nil
}
