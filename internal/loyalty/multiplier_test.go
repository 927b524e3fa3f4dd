package loyalty

import (
	"testing"
	"time"

	"prive-club/internal/model"
)

func TestBestMultiplier(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name      string
		tier      string
		campaigns []model.Campaign
		want      int
	}{
		{
			"no campaigns",
			"Prime",
			nil,
			1,
		},
		{
			"single campaign targets tier",
			"Prime",
			[]model.Campaign{{Name: "Semana do Cliente", Multiplier: 3, TargetTiers: []string{"Prime"}, Active: true}},
			3,
		},
		{
			"campaign targets another tier",
			"Prime",
			[]model.Campaign{{Multiplier: 3, TargetTiers: []string{"Signature"}, Active: true}},
			1,
		},
		{
			"highest wins, no stacking",
			"Prime",
			[]model.Campaign{
				{Multiplier: 2, TargetTiers: []string{"Prime"}, Active: true},
				{Multiplier: 5, TargetTiers: []string{"Prime", "Select"}, Active: true},
				{Multiplier: 3, TargetTiers: []string{"Prime"}, Active: true},
			},
			5,
		},
		{
			"inactive campaign ignored",
			"Prime",
			[]model.Campaign{{Multiplier: 10, TargetTiers: []string{"Prime"}, Active: false}},
			1,
		},
		{
			"expired campaign ignored",
			"Prime",
			[]model.Campaign{{Multiplier: 10, TargetTiers: []string{"Prime"}, Active: true, EndsAt: &past}},
			1,
		},
		{
			"not yet started ignored",
			"Prime",
			[]model.Campaign{{Multiplier: 10, TargetTiers: []string{"Prime"}, Active: true, StartsAt: &future}},
			1,
		},
		{
			"window containing now applies",
			"Prime",
			[]model.Campaign{{Multiplier: 2, TargetTiers: []string{"Prime"}, Active: true, StartsAt: &past, EndsAt: &future}},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestMultiplier(tt.tier, tt.campaigns, now); got != tt.want {
				t.Errorf("BestMultiplier = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyMultiplier(t *testing.T) {
	tests := []struct {
		name       string
		base       float64
		multiplier int
		want       int64
	}{
		{"identity", 100, 1, 100},
		{"triple", 100, 3, 300},
		{"fractional base rounds up", 12.5, 1, 13},
		{"fractional base times multiplier", 12.4, 2, 25},
		{"zero multiplier treated as one", 100, 0, 100},
		{"negative multiplier treated as one", 100, -2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyMultiplier(tt.base, tt.multiplier); got != tt.want {
				t.Errorf("ApplyMultiplier(%v, %d) = %d, want %d", tt.base, tt.multiplier, got, tt.want)
			}
		})
	}
}

func TestRuleBaseAmount(t *testing.T) {
	tests := []struct {
		name        string
		rule        model.RewardRule
		amountCents int64
		want        float64
	}{
		{"fixed rule ignores service amount", model.RewardRule{Points: 200}, 99999, 200},
		{"per-currency rule scales", model.RewardRule{Points: 10, PerAmountCents: 10000}, 25000, 25},
		{"per-currency partial unit", model.RewardRule{Points: 10, PerAmountCents: 10000}, 5000, 5},
		{"per-currency zero service", model.RewardRule{Points: 10, PerAmountCents: 10000}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RuleBaseAmount(&tt.rule, tt.amountCents); got != tt.want {
				t.Errorf("RuleBaseAmount = %v, want %v", got, tt.want)
			}
		})
	}
}
