package loyalty

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"prive-club/internal/model"
)

func entryAt(source string, age time.Duration, now time.Time) model.LedgerEntry {
	return model.LedgerEntry{Source: source, CreatedAt: now.Add(-age)}
}

func TestEligible(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	story := model.StoryClass()

	tests := []struct {
		name     string
		entries  []model.LedgerEntry
		class    []string
		cooldown int
		want     bool
	}{
		{
			"empty ledger",
			nil,
			story, 24, true,
		},
		{
			"recent grant in class denies",
			[]model.LedgerEntry{entryAt(model.SourceStoryInsta, 2*time.Hour, now)},
			story, 24, false,
		},
		{
			"legacy source counts toward class",
			[]model.LedgerEntry{entryAt(model.SourceAppStoryShareLegacy, 2*time.Hour, now)},
			story, 24, false,
		},
		{
			"grant outside window allows",
			[]model.LedgerEntry{entryAt(model.SourceStoryStudio, 25*time.Hour, now)},
			story, 24, true,
		},
		{
			"other sources ignored",
			[]model.LedgerEntry{
				entryAt(model.SourceCheckin, time.Hour, now),
				entryAt(model.SourceRedemption, time.Minute, now),
			},
			story, 24, true,
		},
		{
			"once-ever denies on any prior entry",
			[]model.LedgerEntry{entryAt(model.SourceFirstFeedback, 365*24*time.Hour, now)},
			[]string{model.SourceFirstFeedback}, 0, false,
		},
		{
			"once-ever allows with clean history",
			[]model.LedgerEntry{entryAt(model.SourceCheckin, time.Hour, now)},
			[]string{model.SourceFirstFeedback}, 0, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.entries, tt.class, tt.cooldown, now); got != tt.want {
				t.Errorf("Eligible = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestEligibilityCooldownProperty: a single prior grant of the class denies
// exactly when its age is inside the cooldown window.
func TestEligibilityCooldownProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		cooldownHours := rapid.IntRange(1, 48).Draw(t, "cooldownHours")
		ageMinutes := rapid.IntRange(0, 48*60+120).Draw(t, "ageMinutes")

		age := time.Duration(ageMinutes) * time.Minute
		entries := []model.LedgerEntry{entryAt(model.SourceCheckin, age, now)}

		got := Eligible(entries, []string{model.SourceCheckin}, cooldownHours, now)
		want := age >= time.Duration(cooldownHours)*time.Hour

		if got != want {
			t.Fatalf("Eligible mismatch: age=%v cooldown=%dh, got %v want %v",
				age, cooldownHours, got, want)
		}
	})
}

// TestEligibilityClassIsolationProperty: entries outside the class never
// affect the decision.
func TestEligibilityClassIsolationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		numNoise := rapid.IntRange(0, 20).Draw(t, "numNoise")

		noiseSources := []string{
			model.SourceRedemption, model.SourceBaseGeneration,
			model.SourceReferral, model.SourceAdminAdjust,
		}
		entries := make([]model.LedgerEntry, numNoise)
		for i := range entries {
			src := rapid.SampledFrom(noiseSources).Draw(t, "src")
			ageMin := rapid.IntRange(0, 10000).Draw(t, "ageMin")
			entries[i] = entryAt(src, time.Duration(ageMin)*time.Minute, now)
		}

		if !Eligible(entries, model.StoryClass(), 24, now) {
			t.Fatal("entries outside the action class must not deny a grant")
		}
	})
}
