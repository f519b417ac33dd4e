// Package credentials owns email/password credentials. Accounts hold a
// reference to a credential; nothing outside this package touches the
// hash.
package credentials

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

var (
	// ErrEmailTaken means a credential already exists for the email.
	// Credential creation is NOT idempotent; callers must never retry
	// a create on this error.
	ErrEmailTaken = errors.New("credentials: email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong
	// password, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("credentials: invalid email or password")

	// ErrInvalidResetToken covers unknown, already-used and expired
	// reset tokens, again indistinguishable to the caller.
	ErrInvalidResetToken = errors.New("credentials: invalid or expired reset token")
)

// resetTokenTTL is how long a password reset token stays redeemable.
const resetTokenTTL = time.Hour

// Service is the credential collaborator the workflows depend on.
type Service interface {
	// Create stores a new credential and returns its reference.
	Create(email, password string) (int64, error)
	// Authenticate verifies email+password and returns the reference.
	Authenticate(email, password string) (int64, error)
	// ChangeSecret reauthenticates with the old password, then swaps
	// the hash.
	ChangeSecret(ref int64, oldPassword, newPassword string) error
	// CreateResetToken mints a single-use recovery token for the email.
	CreateResetToken(email string) (string, error)
	// ResetSecret redeems a recovery token and replaces the hash. The
	// token is consumed whether or not it had expired.
	ResetSecret(token, newPassword string) error
}

const mysqlDuplicateEntry = 1062

// MySQLService implements Service over the credentials table.
type MySQLService struct {
	DB *sql.DB
}

func (s *MySQLService) Create(email, password string) (int64, error) {
	var p models.Password
	if err := p.Set(password); err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `INSERT INTO credentials (email, password_hash, created_at) VALUES (?, ?, ?)`
	result, err := s.DB.Exec(query, email, p.Hash, time.Now())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("failed to insert credential: %w", err)
	}
	return result.LastInsertId()
}

func (s *MySQLService) Authenticate(email, password string) (int64, error) {
	var ref int64
	var hash string

	query := `SELECT id, password_hash FROM credentials WHERE email = ?`
	err := s.DB.QueryRow(query, email).Scan(&ref, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}

	p := models.Password{Hash: hash}
	match, err := p.Matches(password)
	if err != nil {
		return 0, err
	}
	if !match {
		return 0, ErrInvalidCredentials
	}
	return ref, nil
}

func (s *MySQLService) CreateResetToken(email string) (string, error) {
	var ref int64
	err := s.DB.QueryRow(`SELECT id FROM credentials WHERE email = ?`, email).Scan(&ref)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	token := uuid.New().String()
	expires := time.Now().Add(resetTokenTTL)
	_, err = s.DB.Exec(
		`UPDATE credentials SET reset_token = ?, reset_token_expires_at = ? WHERE id = ?`,
		token, expires, ref,
	)
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

func (s *MySQLService) ResetSecret(token, newPassword string) error {
	var ref int64
	var expires time.Time
	query := `SELECT id, reset_token_expires_at FROM credentials WHERE reset_token = ?`
	err := s.DB.QueryRow(query, token).Scan(&ref, &expires)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInvalidResetToken
		}
		return err
	}

	// Burn the token first so an expired one cannot be replayed either.
	_, err = s.DB.Exec(
		`UPDATE credentials SET reset_token = NULL, reset_token_expires_at = NULL WHERE id = ?`, ref,
	)
	if err != nil {
		return err
	}
	if time.Now().After(expires) {
		return ErrInvalidResetToken
	}

	var next models.Password
	if err := next.Set(newPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.DB.Exec(`UPDATE credentials SET password_hash = ? WHERE id = ?`, next.Hash, ref)
	return err
}

func (s *MySQLService) ChangeSecret(ref int64, oldPassword, newPassword string) error {
	var hash string
	err := s.DB.QueryRow(`SELECT password_hash FROM credentials WHERE id = ?`, ref).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrInvalidCredentials
		}
		return err
	}

	p := models.Password{Hash: hash}
	match, err := p.Matches(oldPassword)
	if err != nil {
		return err
	}
	if !match {
		return ErrInvalidCredentials
	}

	var next models.Password
	if err := next.Set(newPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.DB.Exec(`UPDATE credentials SET password_hash = ? WHERE id = ?`, next.Hash, ref)
	return err
}
