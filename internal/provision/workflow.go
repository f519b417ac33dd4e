// Package provision orchestrates "pay, then provision": one transfer
// attempt, one confirmation lookup, and at most one account created per
// attempt. There is no saga persistence; a timed-out attempt is simply
// retried from scratch by the subscriber.
package provision

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mozsignals/mozsignals-api/internal/credentials"
	"github.com/mozsignals/mozsignals-api/internal/models"
	"github.com/mozsignals/mozsignals-api/internal/payment"
	"github.com/mozsignals/mozsignals-api/internal/store"
	"github.com/mozsignals/mozsignals-api/internal/subscription"
)

// Valid M-Pesa numbers: 9 digits starting with 84 or 85.
var phonePattern = regexp.MustCompile(`^(84|85)\d{7}$`)

// ValidatePhone reports whether the number matches the accepted
// carrier prefixes. Checked before any network call is made.
func ValidatePhone(number string) bool {
	return phonePattern.MatchString(number)
}

// ValidationError is a locally-detected input problem. It never reaches
// the gateway.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReconciliationError is the one condition that needs a human: the
// transfer completed but the account could not be created. It must
// never be retried automatically, because credential creation is not
// idempotent.
type ReconciliationError struct {
	TransactionID string
	Email         string
	Err           error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment %s confirmed but provisioning failed for %s: %v", e.TransactionID, e.Email, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// Status is the terminal state of one provisioning attempt.
type Status string

const (
	// StatusProvisioned: transfer confirmed, account created.
	StatusProvisioned Status = "provisioned"
	// StatusPending: the single lookup found no completed matching
	// transaction. The payment may still land; the subscriber is told
	// to try logging in shortly, not given a hard failure.
	StatusPending Status = "pending"
)

// Input is the registration form.
type Input struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
}

// Result of a finished (non-aborted) attempt.
type Result struct {
	Status        Status
	AccountID     int64
	TransactionID string
}

// Gateway is the slice of the payment client the workflow needs.
type Gateway interface {
	Transfer(phoneNumber string, amount float64, description string) (payment.TransferResponse, error)
	Transactions() ([]payment.Transaction, error)
}

// Workflow runs provisioning attempts. Price, grant length and wait are
// injected configuration, never literals.
type Workflow struct {
	Gateway     Gateway
	Credentials credentials.Service
	Accounts    store.AccountStore

	Price       float64
	AccessDays  int
	ConfirmWait time.Duration

	// Test seams. Zero values fall back to the real thing.
	Sleep        func(time.Duration)
	Now          func() time.Time
	NewReference func() string
}

func (w *Workflow) sleep(d time.Duration) {
	if w.Sleep != nil {
		w.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Workflow) newReference() string {
	if w.NewReference != nil {
		return w.NewReference()
	}
	return uuid.New().String()
}

// Validate checks the form locally. No network call happens until this
// passes.
func Validate(in Input) error {
	if strings.TrimSpace(in.Username) == "" {
		return &ValidationError{Field: "username", Reason: "required"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return &ValidationError{Field: "confirmPassword", Reason: "passwords do not match"}
	}
	if !ValidatePhone(in.PhoneNumber) {
		return &ValidationError{Field: "phoneNumber", Reason: "must be 9 digits starting with 84 or 85"}
	}
	return nil
}

// Run executes one attempt end to end:
//
//	validate -> initiate transfer -> flat wait -> single lookup
//	-> on complete: create credential, grant window, persist account
//
// Initiation failure aborts with the gateway error (no retry). A lookup
// that finds nothing resolves to StatusPending. A credential or store
// failure after a confirmed payment resolves to *ReconciliationError.
func (w *Workflow) Run(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}

	// The reference rides in the transfer description so the lookup
	// can match our own transfer instead of guessing by phone+amount.
	reference := w.newReference()
	description := fmt.Sprintf("Acesso Premium - %s [%s]", in.Username, reference)

	ack, err := w.Gateway.Transfer(in.PhoneNumber, w.Price, description)
	if err != nil {
		return Result{}, err
	}

	w.sleep(w.ConfirmWait)

	outcome, txID := w.lookupTransfer(in, reference, ack)
	if outcome == lookupFailed {
		return Result{}, &payment.GatewayError{Message: "transfer was not completed"}
	}
	if outcome != lookupComplete {
		return Result{Status: StatusPending, TransactionID: txID}, nil
	}

	ref, err := w.Credentials.Create(in.Email, in.Password)
	if err != nil {
		recErr := &ReconciliationError{TransactionID: txID, Email: in.Email, Err: err}
		// Operator alert: money moved, no account exists.
		log.Printf("ALERT reconciliation needed: %v", recErr)
		return Result{}, recErr
	}

	now := w.now()
	account := models.Account{
		CredentialRef: ref,
		Username:      in.Username,
		Email:         in.Email,
		PhoneNumber:   in.PhoneNumber,
		PaymentAmount: w.Price,
		TransactionID: txID,
		LoginHistory:  []models.LoginEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	account = subscription.Grant(account, w.AccessDays, now)

	id, err := w.Accounts.Create(account)
	if err != nil {
		recErr := &ReconciliationError{TransactionID: txID, Email: in.Email, Err: err}
		log.Printf("ALERT reconciliation needed: %v", recErr)
		return Result{}, recErr
	}

	return Result{Status: StatusProvisioned, AccountID: id, TransactionID: txID}, nil
}

type lookupOutcome int

const (
	lookupNotFound lookupOutcome = iota
	lookupComplete
	lookupFailed
	lookupPending
)

func outcomeForStatus(status string) lookupOutcome {
	switch status {
	case payment.StatusComplete:
		return lookupComplete
	case payment.StatusFailed:
		return lookupFailed
	default:
		return lookupPending
	}
}

// lookupTransfer issues the single post-wait status lookup and tries to
// find our transfer: first by the minted reference in the description,
// then, as a compatibility shim for gateways that drop the description,
// by phone+amount+type against the newest entries. A lookup transport
// failure is treated like "not found yet": we cannot claim the payment
// failed, so we fail open toward patience.
func (w *Workflow) lookupTransfer(in Input, reference string, ack payment.TransferResponse) (lookupOutcome, string) {
	txs, err := w.Gateway.Transactions()
	if err != nil {
		log.Printf("provision: transaction lookup failed (payment may still land): %v", err)
		return lookupNotFound, ack.Data.ID
	}

	for _, tx := range txs {
		if strings.Contains(tx.Description, reference) {
			return outcomeForStatus(tx.Status), tx.ID
		}
	}
	for _, tx := range txs {
		if tx.NumberPhone == in.PhoneNumber && tx.Amount == w.Price && tx.Type == payment.TypeTransfer {
			return outcomeForStatus(tx.Status), tx.ID
		}
	}
	return lookupNotFound, ack.Data.ID
}
