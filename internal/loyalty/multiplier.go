package loyalty

import (
	"math"
	"time"

	"prive-club/internal/model"
)

// BestMultiplier returns the highest multiplier among campaigns that are in
// effect at now and target the account's tier. Campaigns do not stack. With
// no matching campaign the multiplier is 1.
func BestMultiplier(tierName string, campaigns []model.Campaign, now time.Time) int {
	best := 1
	for i := range campaigns {
		c := &campaigns[i]
		if !c.InEffect(now) || !c.Targets(tierName) {
			continue
		}
		if c.Multiplier > best {
			best = c.Multiplier
		}
	}
	return best
}

// ApplyMultiplier scales a base point amount by a campaign multiplier and
// rounds to the nearest whole point. Fractional bases come from
// points-per-currency rules.
func ApplyMultiplier(base float64, multiplier int) int64 {
	if multiplier < 1 {
		multiplier = 1
	}
	return int64(math.Round(base * float64(multiplier)))
}

// RuleBaseAmount computes the base point amount a rule grants. Fixed rules
// ignore the service amount; per-currency rules scale Points by how many
// PerAmountCents units the service amount contains (e.g. 10 points per
// R$100 on a R$250 service yields 25 points before rounding).
func RuleBaseAmount(rule *model.RewardRule, serviceAmountCents int64) float64 {
	if rule.PerAmountCents <= 0 {
		return rule.Points
	}
	return rule.Points * float64(serviceAmountCents) / float64(rule.PerAmountCents)
}
