// Package loyalty implements the pure business rules of the Privé Club
// engine: tier resolution, campaign multipliers, reward amount computation
// and the anti-fraud grant gate. Everything here is side-effect free; the
// service layer owns persistence and locking.
package loyalty

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"prive-club/internal/model"
)

// Resolver errors.
var (
	ErrNoTiers         = errors.New("tier table is empty")
	ErrTiersNotOrdered = errors.New("tier thresholds must be strictly ascending")
	ErrDuplicateTier   = errors.New("tier names must be unique")
)

// Resolver maps a balance to a named tier using an ordered threshold table.
// The table is validated once at construction; a misordered table is a
// configuration error, not something to paper over at resolve time.
type Resolver struct {
	tiers []model.Tier // ascending by MinPoints
}

// NewResolver validates and builds a Resolver from a tier table in any order.
func NewResolver(tiers []model.Tier) (*Resolver, error) {
	if len(tiers) == 0 {
		return nil, ErrNoTiers
	}

	sorted := make([]model.Tier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPoints < sorted[j].MinPoints })

	seen := make(map[string]struct{}, len(sorted))
	for i, t := range sorted {
		if t.Name == "" {
			return nil, fmt.Errorf("tier at threshold %d has no name", t.MinPoints)
		}
		if _, dup := seen[t.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTier, t.Name)
		}
		seen[t.Name] = struct{}{}
		if i > 0 && sorted[i-1].MinPoints >= t.MinPoints {
			return nil, fmt.Errorf("%w: %d then %d", ErrTiersNotOrdered, sorted[i-1].MinPoints, t.MinPoints)
		}
	}

	return &Resolver{tiers: sorted}, nil
}

// Resolve returns the highest tier whose threshold the balance meets or
// exceeds. A balance below every threshold still resolves to the lowest
// tier, never to "no tier".
func (r *Resolver) Resolve(balance int64) model.Tier {
	current := r.tiers[0]
	for _, t := range r.tiers {
		if balance >= t.MinPoints {
			current = t
		}
	}
	return current
}

// Next returns the first tier above the balance, or false at the top tier.
func (r *Resolver) Next(balance int64) (model.Tier, bool) {
	for _, t := range r.tiers {
		if t.MinPoints > balance {
			return t, true
		}
	}
	return model.Tier{}, false
}

// PointsToNext returns how many points separate the balance from the next
// tier, or 0 at the top tier.
func (r *Resolver) PointsToNext(balance int64) int64 {
	next, ok := r.Next(balance)
	if !ok {
		return 0
	}
	return next.MinPoints - balance
}

// NearUpgrade reports whether the balance has reached the given fraction of
// the next tier's threshold without crossing it. Used as the trigger
// condition for upgrade-proximity notifications.
func (r *Resolver) NearUpgrade(balance int64, fraction float64) bool {
	next, ok := r.Next(balance)
	if !ok {
		return false
	}
	threshold := int64(math.Ceil(fraction * float64(next.MinPoints)))
	return balance >= threshold
}

// Tiers returns the validated table in ascending threshold order.
func (r *Resolver) Tiers() []model.Tier {
	out := make([]model.Tier, len(r.tiers))
	copy(out, r.tiers)
	return out
}
