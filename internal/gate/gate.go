// Package gate classifies an authenticated caller into exactly one
// access state on every protected-page entry. It keeps no state of its
// own: classification is a pure function over freshly fetched Account
// and MaintenanceFlag data.
package gate

import (
	"log"
	"time"

	"github.com/mozsignals/mozsignals-api/internal/models"
	"github.com/mozsignals/mozsignals-api/internal/store"
	"github.com/mozsignals/mozsignals-api/internal/subscription"
)

// Terminal states. Exactly one is produced per check.
const (
	StateUnauthenticated = "unauthenticated"
	StateNoRecord        = "no_record"
	StateExpired         = "expired"
	StateDisabled        = "disabled"
	StateActive          = "active"
	// StateUnavailable means the store could not be read. It is kept
	// distinct from NoRecord so a network blip never tells a paying
	// user their account doesn't exist.
	StateUnavailable = "unavailable"
)

// Outcome is the result of one gate evaluation.
type Outcome struct {
	State   string
	Account models.Account

	// Maintenance is the overlay for the requested surface. Only ever
	// set on an Active outcome; it blocks the page cosmetically without
	// touching the Active classification.
	Maintenance *models.MaintenanceFlag

	// InvalidateSession is set when a partially-written record was
	// found. The caller's session should be dropped, same as NoRecord.
	InvalidateSession bool
}

// Input is everything Classify needs, already fetched.
type Input struct {
	CallerPresent bool
	Record        *models.Account
	Flag          *models.MaintenanceFlag
	Now           time.Time
}

// Classify applies the transition rules in order, first match wins:
//
//  1. no caller          -> Unauthenticated
//  2. no record          -> NoRecord
//  3. incomplete record  -> NoRecord (and invalidate the session)
//  4. window elapsed     -> Expired
//  5. operator disabled  -> Disabled
//  6. otherwise          -> Active, with the maintenance overlay when
//     the surface flag is enabled
func Classify(in Input) Outcome {
	if !in.CallerPresent {
		return Outcome{State: StateUnauthenticated}
	}
	if in.Record == nil {
		return Outcome{State: StateNoRecord}
	}
	if !in.Record.HasRequiredFields() {
		return Outcome{State: StateNoRecord, InvalidateSession: true}
	}
	if !in.Now.Before(in.Record.ExpiresAt) {
		return Outcome{State: StateExpired, Account: *in.Record}
	}
	if in.Record.Activation == models.ActivationDisabled {
		return Outcome{State: StateDisabled, Account: *in.Record}
	}

	out := Outcome{State: StateActive, Account: *in.Record}
	if in.Flag != nil && in.Flag.Enabled {
		flag := *in.Flag
		out.Maintenance = &flag
	}
	return out
}

// Gate is the store-backed evaluator the middleware uses.
type Gate struct {
	Accounts store.AccountStore
	Flags    store.FlagStore
}

// Check fetches the caller's record (and the surface's maintenance
// flag, when a surface is named) and classifies. Store failures map to
// Unavailable. When the check observes an expired-but-still-active
// record it converges the persisted flag; that write is best-effort and
// never blocks the Expired outcome.
func (g *Gate) Check(accountID int64, surface string, now time.Time) Outcome {
	account, found, err := g.Accounts.Get(accountID)
	if err != nil {
		log.Printf("gate: account fetch failed for %d: %v", accountID, err)
		return Outcome{State: StateUnavailable}
	}

	in := Input{CallerPresent: true, Now: now}
	if found {
		in.Record = &account
	}

	if found && account.HasRequiredFields() && surface != "" && subscription.IsValid(account, now) {
		flag, flagFound, err := g.Flags.Get(surface)
		if err != nil {
			log.Printf("gate: maintenance flag fetch failed for %q: %v", surface, err)
			return Outcome{State: StateUnavailable}
		}
		if flagFound {
			in.Flag = &flag
		}
	}

	out := Classify(in)

	if out.State == StateExpired {
		if updated, changed := subscription.MarkExpiredIfNeeded(account, now); changed {
			if err := g.Accounts.Update(account.ID, store.AccountUpdate{Activation: &updated.Activation}); err != nil {
				log.Printf("gate: failed to persist expiry for account %d: %v", account.ID, err)
			}
		}
	}

	return out
}
