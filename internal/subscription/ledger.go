// Package subscription is the pure ledger over Account data. No I/O:
// callers fetch the record, we compute, callers persist.
package subscription

import (
	"time"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

// IsValid reports whether the account may be granted access at the
// given instant. This must be recomputed on every check, because time
// keeps moving whether or not anyone writes to the record, so nothing
// in this package memoizes it.
func IsValid(account models.Account, now time.Time) bool {
	return account.Activation == models.ActivationActive && now.Before(account.ExpiresAt)
}

// Grant sets a fresh subscription window of the given number of days
// starting at now, and reactivates the account. Used both for initial
// provisioning and for admin renewals.
//
// Renewal is reset-forward: any unused time on the previous window is
// discarded. Granting 2 days to an account with 10 days left yields an
// expiry 2 days out, not 12.
func Grant(account models.Account, days int, now time.Time) models.Account {
	account.Activation = models.ActivationActive
	account.GrantedDays = days
	account.ExpiresAt = now.Add(time.Duration(days) * 24 * time.Hour)
	account.UpdatedAt = now
	return account
}

// MarkExpiredIfNeeded flips an active-but-expired account to disabled.
// It reports whether anything changed so callers only write back when
// needed. Applying it twice with the same now is a no-op the second
// time.
func MarkExpiredIfNeeded(account models.Account, now time.Time) (models.Account, bool) {
	if account.Activation == models.ActivationActive && !IsValid(account, now) {
		account.Activation = models.ActivationDisabled
		account.UpdatedAt = now
		return account, true
	}
	return account, false
}
