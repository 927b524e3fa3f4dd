// Package model defines the data models for the Privé Club loyalty service.
package model

import "time"

// Account represents a client of the studio enrolled in the loyalty club.
// Balance is a denormalized cache of the ledger sum for low-latency display;
// the ledger is the source of truth and the cache is overwritten by reconcile.
type Account struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Balance      int64     `db:"balance" json:"balance"`
	ReferralCode string    `db:"referral_code" json:"referral_code"`
	ReferredBy   *string   `db:"referred_by" json:"referred_by"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is an immutable signed point transaction.
// Entries are only ever appended; corrections are new offsetting entries.
type LedgerEntry struct {
	ID          int64     `db:"id" json:"id"`
	AccountID   int64     `db:"account_id" json:"account_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Source      string    `db:"source" json:"source"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RewardRule is an admin-configured mapping from an action code to a point
// value. PerAmountCents > 0 means the rule grants Points per that many cents
// of service value (e.g. 10 points per R$100); 0 means a fixed grant.
type RewardRule struct {
	Code           string    `db:"code" json:"code"`
	Description    string    `db:"description" json:"description"`
	Points         float64   `db:"points" json:"points"`
	PerAmountCents int64     `db:"per_amount_cents" json:"per_amount_cents"`
	Active         bool      `db:"active" json:"active"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Tier is a named loyalty level with a minimum balance threshold.
// Tiers are ordered ascending by MinPoints; an account's tier is the highest
// tier whose threshold its balance meets or exceeds.
type Tier struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	MinPoints int64  `db:"min_points" json:"min_points"`
}

// Reward is a redeemable catalog item. Stock is informational only and is
// not decremented on redemption.
type Reward struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Category   string    `db:"category" json:"category"`
	PointsCost int64     `db:"points_cost" json:"points_cost"`
	Stock      *int      `db:"stock" json:"stock"`
	Rules      string    `db:"rules" json:"rules"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Campaign is a temporary accrual multiplier targeted at a set of tiers.
// A campaign is in effect when Active and the current time falls inside
// [StartsAt, EndsAt], treating nil bounds as open.
type Campaign struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Multiplier  int        `db:"multiplier" json:"multiplier"`
	TargetTiers []string   `db:"target_tiers" json:"target_tiers"`
	Active      bool       `db:"active" json:"active"`
	StartsAt    *time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at"`
	NotifyTitle string     `db:"notify_title" json:"notify_title"`
	NotifyBody  string     `db:"notify_body" json:"notify_body"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// InEffect reports whether the campaign applies at the given instant.
func (c *Campaign) InEffect(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	return true
}

// Targets reports whether the campaign's audience includes the given tier.
func (c *Campaign) Targets(tierName string) bool {
	for _, t := range c.TargetTiers {
		if t == tierName {
			return true
		}
	}
	return false
}

// Ledger sources identifying the business reason for a point grant or debit.
// Sources are descriptive strings, not foreign keys: deactivating or removing
// a reward rule never invalidates historical ledger entries.
const (
	SourceBaseGeneration = "BASE_GENERATION" // completed appointment accrual
	SourceReferral       = "REFERRAL"        // referred friend signed up
	SourceCheckin        = "CHECKIN"         // arrival check-in
	SourceStoryInsta     = "STORY_INSTA"     // story shared on Instagram
	SourceStoryStudio    = "STORY_STUDIO"    // story shared in the app
	SourceFirstFeedback  = "FIRST_FEEDBACK"  // first testimonial submitted
	SourceRedemption     = "REDEMPTION"      // reward redeemed
	SourceAdminAdjust    = "ADMIN_ADJUST"    // manual admin adjustment
)

// Legacy story sources still present in old ledger rows. The anti-fraud gate
// treats them as part of the story action class.
const (
	SourceStoryShareLegacy    = "STORY_SHARE"
	SourceAppStoryShareLegacy = "APP_STORY_SHARE"
)

// StoryClass is the anti-fraud action class covering every story-sharing
// variant: one grant per cooldown window across all of them.
func StoryClass() []string {
	return []string{SourceStoryInsta, SourceStoryStudio, SourceStoryShareLegacy, SourceAppStoryShareLegacy}
}
