package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"prive-club/internal/loyalty"
	"prive-club/internal/model"
	"prive-club/internal/repository"
)

// Common errors for account operations.
var (
	ErrEmptyName           = errors.New("account name is required")
	ErrReferralCodeUnknown = errors.New("referral code does not match any account")
)

// SignupResult is a newly enrolled account plus the referral grant paid out
// to the referrer, if any.
type SignupResult struct {
	Account       *model.Account
	Referrer      *model.Account
	ReferralGrant *GrantResult
}

// ReferralView shows an account its own code and who signed up with it.
type ReferralView struct {
	Code     string
	Referred []*model.Account
}

// AccountService handles club enrollment and the referral program.
type AccountService struct {
	accountRepo *repository.AccountRepository
	codes       *loyalty.CodeGenerator
	loyaltySvc  *LoyaltyService
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(
	accountRepo *repository.AccountRepository,
	codes *loyalty.CodeGenerator,
	loyaltySvc *LoyaltyService,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		codes:       codes,
		loyaltySvc:  loyaltySvc,
	}
}

// Signup enrolls a new member. When a referral code is supplied it must
// belong to an existing account; the referrer is then paid the referral
// grant. A failed referral payout does not roll back the enrollment, the
// new member keeps their account and the payout error is surfaced in the
// result as a missing grant.
func (s *AccountService) Signup(ctx context.Context, name string, referredByCode *string) (*SignupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var referrer *model.Account
	if referredByCode != nil && *referredByCode != "" {
		found, err := s.accountRepo.GetByReferralCode(ctx, *referredByCode)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, ErrReferralCodeUnknown
			}
			return nil, err
		}
		referrer = found
	} else {
		referredByCode = nil
	}

	account, err := s.accountRepo.Create(ctx, name, referredByCode)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Code(account.ID)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.SetReferralCode(ctx, account.ID, code); err != nil {
		return nil, err
	}
	account.ReferralCode = code

	result := &SignupResult{Account: account, Referrer: referrer}
	if referrer != nil {
		desc := fmt.Sprintf("referral signup: %s", account.Name)
		grant, err := s.loyaltySvc.Grant(ctx, referrer.ID, model.SourceReferral, 0, &desc)
		if err == nil {
			result.ReferralGrant = grant
		}
		// A deactivated rule or inactive referrer just means no payout.
	}
	return result, nil
}

// Get retrieves an account by ID.
func (s *AccountService) Get(ctx context.Context, accountID int64) (*model.Account, error) {
	return s.accountRepo.GetByID(ctx, accountID)
}

// Referral returns an account's own code and the members it brought in.
func (s *AccountService) Referral(ctx context.Context, accountID int64) (*ReferralView, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	referred, err := s.accountRepo.ListReferredBy(ctx, account.ReferralCode)
	if err != nil {
		return nil, err
	}
	return &ReferralView{Code: account.ReferralCode, Referred: referred}, nil
}

// Deactivate marks an account inactive. The ledger history stays intact.
func (s *AccountService) Deactivate(ctx context.Context, accountID int64) error {
	return s.accountRepo.Deactivate(ctx, accountID)
}
