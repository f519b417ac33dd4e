// Package store owns the persistence of accounts, maintenance flags and
// site settings. Handlers talk to these interfaces; the MySQL
// implementations live in mysql.go and the in-memory ones (used by
// tests) in memory.go.
package store

import (
	"errors"
	"time"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

// ErrNotFound is returned by writes that target a missing record.
// Reads report absence through their `found` result instead, so a
// store error always means the store itself failed. Callers must not
// confuse "record missing" with "store unavailable".
var ErrNotFound = errors.New("store: record not found")

// AccountUpdate is a partial update. Nil fields are left untouched.
type AccountUpdate struct {
	Username     *string
	PhoneNumber  *string
	Activation   *string
	GrantedDays  *int
	ExpiresAt    *time.Time
	LoginHistory *[]models.LoginEntry
	LastLogin    *time.Time
}

// AccountStore is the account collection.
type AccountStore interface {
	// Get fetches one account. found=false with a nil error means the
	// record simply does not exist.
	Get(id int64) (models.Account, bool, error)
	// GetByCredential resolves the account owning a credential ref.
	GetByCredential(ref int64) (models.Account, bool, error)
	// Create inserts a new account and returns its id.
	Create(account models.Account) (int64, error)
	// Update applies a partial update without clobbering unset fields.
	Update(id int64, fields AccountUpdate) error
	// List returns accounts, optionally filtered by a username/email
	// substring, newest first.
	List(search string) ([]models.Account, error)
}

// FlagStore is the per-surface maintenance flag collection.
type FlagStore interface {
	Get(surface string) (models.MaintenanceFlag, bool, error)
	Set(flag models.MaintenanceFlag) error
}

// SettingsStore holds the single site customization document.
type SettingsStore interface {
	Get() (models.SiteSettings, bool, error)
	Set(settings models.SiteSettings) error
}
