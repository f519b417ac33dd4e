package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Activation values for an account. Only these two exist: an account is
// never deleted, only disabled.
const (
	ActivationActive   = "active"
	ActivationDisabled = "disabled"
)

// Roles carried in the JWT. Regular subscribers are "user"; the admin
// console mints "administrator" tokens after the auth-code challenge.
const (
	RoleUser          = "user"
	RoleAdministrator = "administrator"
)

// MaxLoginHistory caps the login history ring. Older entries are
// dropped so the record cannot grow without bound.
const MaxLoginHistory = 50

// Account is one subscriber record.
type Account struct {
	ID            int64  `json:"id" db:"id"`
	CredentialRef int64  `json:"-" db:"credential_id"`
	Username      string `json:"username" db:"username"`
	Email         string `json:"email" db:"email"`
	PhoneNumber   string `json:"phoneNumber" db:"phone_number"`

	// Activation is flipped by the admin console or by the expiry
	// sweep. Validity is NEVER read from this field alone; see
	// subscription.IsValid.
	Activation string `json:"activation" db:"activation"`

	// Subscription window. ExpiresAt is always "time of last grant +
	// GrantedDays"; a renewal resets the window forward, it does not
	// stack on top of the old expiry.
	GrantedDays int       `json:"grantedDays" db:"granted_days"`
	ExpiresAt   time.Time `json:"expiresAt" db:"expires_at"`

	// Provisioning provenance.
	PaymentAmount float64 `json:"paymentAmount" db:"payment_amount"`
	TransactionID string  `json:"transactionId" db:"transaction_id"`

	LoginHistory []LoginEntry `json:"loginHistory" db:"login_history"`

	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	LastLogin *time.Time `json:"lastLogin,omitempty" db:"last_login"`
}

// LoginEntry is one row of the login history.
type LoginEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Device    string    `json:"device"`
}

// HasRequiredFields reports whether the record is complete enough to
// gate on. A partially-written record (no credential, no window) is
// treated the same as a missing record by the Access Gate.
func (a *Account) HasRequiredFields() bool {
	return a.CredentialRef != 0 && !a.ExpiresAt.IsZero() && a.Email != ""
}

// AppendLoginEntry appends an entry and keeps only the newest
// MaxLoginHistory records.
func AppendLoginEntry(history []LoginEntry, entry LoginEntry) []LoginEntry {
	history = append(history, entry)
	if len(history) > MaxLoginHistory {
		history = history[len(history)-MaxLoginHistory:]
	}
	return history
}

// Password Helper (Standard)
type Password struct {
	Plaintext *string
	Hash      string
}

func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Hash = string(hash)
	p.Plaintext = &plaintextPassword
	return nil
}

func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(p.Hash), []byte(plaintextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
