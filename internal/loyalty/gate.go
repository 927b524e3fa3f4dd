package loyalty

import (
	"time"

	"prive-club/internal/model"
)

// Eligible reports whether a new grant for the given action class may
// proceed, given the account's existing ledger entries. A single prior entry
// whose source belongs to the class and whose age is inside the cooldown
// window denies the grant. cooldownHours <= 0 means once ever: any prior
// entry of the class denies.
//
// This is a coarse single-bucket cooldown, not a sliding-window counter.
// Callers must hold the account's lock so that two concurrent attempts
// cannot both pass before either appends its entry.
func Eligible(entries []model.LedgerEntry, class []string, cooldownHours int, now time.Time) bool {
	var cutoff time.Time
	if cooldownHours > 0 {
		cutoff = now.Add(-time.Duration(cooldownHours) * time.Hour)
	}

	for i := range entries {
		e := &entries[i]
		if !inClass(e.Source, class) {
			continue
		}
		if cooldownHours <= 0 || e.CreatedAt.After(cutoff) {
			return false
		}
	}
	return true
}

func inClass(source string, class []string) bool {
	for _, s := range class {
		if s == source {
			return true
		}
	}
	return false
}
