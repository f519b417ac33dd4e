package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

// MySQLAccounts implements AccountStore over the accounts table.
type MySQLAccounts struct {
	DB *sql.DB
}

const accountColumns = `id, credential_id, username, email, phone_number, activation,
	granted_days, expires_at, payment_amount, transaction_id, login_history,
	created_at, updated_at, last_login`

func scanAccount(row interface{ Scan(...interface{}) error }) (models.Account, error) {
	var acc models.Account
	var history sql.NullString
	var lastLogin sql.NullTime
	var txID sql.NullString

	err := row.Scan(
		&acc.ID,
		&acc.CredentialRef,
		&acc.Username,
		&acc.Email,
		&acc.PhoneNumber,
		&acc.Activation,
		&acc.GrantedDays,
		&acc.ExpiresAt,
		&acc.PaymentAmount,
		&txID,
		&history,
		&acc.CreatedAt,
		&acc.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		return acc, err
	}

	acc.TransactionID = txID.String
	if lastLogin.Valid {
		acc.LastLogin = &lastLogin.Time
	}
	if history.Valid && history.String != "" {
		// A corrupt history blob shouldn't make the whole record
		// unreadable; we just drop it.
		_ = json.Unmarshal([]byte(history.String), &acc.LoginHistory)
	}
	return acc, nil
}

func (s *MySQLAccounts) Get(id int64) (models.Account, bool, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE id = ?", accountColumns)
	acc, err := scanAccount(s.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Account{}, false, nil
		}
		return models.Account{}, false, err
	}
	return acc, true, nil
}

func (s *MySQLAccounts) GetByCredential(ref int64) (models.Account, bool, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE credential_id = ?", accountColumns)
	acc, err := scanAccount(s.DB.QueryRow(query, ref))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Account{}, false, nil
		}
		return models.Account{}, false, err
	}
	return acc, true, nil
}

func (s *MySQLAccounts) Create(account models.Account) (int64, error) {
	history, err := json.Marshal(account.LoginHistory)
	if err != nil {
		return 0, fmt.Errorf("failed to encode login history: %w", err)
	}

	query := `
		INSERT INTO accounts
		(credential_id, username, email, phone_number, activation, granted_days,
		 expires_at, payment_amount, transaction_id, login_history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.DB.Exec(query,
		account.CredentialRef,
		account.Username,
		account.Email,
		account.PhoneNumber,
		account.Activation,
		account.GrantedDays,
		account.ExpiresAt,
		account.PaymentAmount,
		account.TransactionID,
		string(history),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert account: %w", err)
	}
	return result.LastInsertId()
}

// Update builds the SET clause from the non-nil fields only, so a
// partial update never clobbers columns the caller didn't mention.
func (s *MySQLAccounts) Update(id int64, fields AccountUpdate) error {
	sets := []string{}
	args := []interface{}{}

	if fields.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *fields.Username)
	}
	if fields.PhoneNumber != nil {
		sets = append(sets, "phone_number = ?")
		args = append(args, *fields.PhoneNumber)
	}
	if fields.Activation != nil {
		sets = append(sets, "activation = ?")
		args = append(args, *fields.Activation)
	}
	if fields.GrantedDays != nil {
		sets = append(sets, "granted_days = ?")
		args = append(args, *fields.GrantedDays)
	}
	if fields.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, *fields.ExpiresAt)
	}
	if fields.LoginHistory != nil {
		history, err := json.Marshal(*fields.LoginHistory)
		if err != nil {
			return fmt.Errorf("failed to encode login history: %w", err)
		}
		sets = append(sets, "login_history = ?")
		args = append(args, string(history))
	}
	if fields.LastLogin != nil {
		sets = append(sets, "last_login = ?")
		args = append(args, *fields.LastLogin)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE accounts SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := s.DB.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either the id doesn't exist or the values already match.
		// Distinguish the two so callers don't report phantom errors.
		var exists int
		if err := s.DB.QueryRow("SELECT 1 FROM accounts WHERE id = ?", id).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

func (s *MySQLAccounts) List(search string) ([]models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts", accountColumns)
	args := []interface{}{}

	if search != "" {
		query += " WHERE username LIKE ? OR email LIKE ?"
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// MySQLFlags implements FlagStore over the maintenance_flags table.
type MySQLFlags struct {
	DB *sql.DB
}

func (s *MySQLFlags) Get(surface string) (models.MaintenanceFlag, bool, error) {
	var flag models.MaintenanceFlag
	query := `
		SELECT surface, enabled, reason, message, end_time, image_url, updated_at
		FROM maintenance_flags WHERE surface = ?`

	err := s.DB.QueryRow(query, surface).Scan(
		&flag.Surface,
		&flag.Enabled,
		&flag.Reason,
		&flag.Message,
		&flag.EndTime,
		&flag.ImageURL,
		&flag.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.MaintenanceFlag{}, false, nil
		}
		return models.MaintenanceFlag{}, false, err
	}
	return flag, true, nil
}

func (s *MySQLFlags) Set(flag models.MaintenanceFlag) error {
	query := `
		INSERT INTO maintenance_flags
		(surface, enabled, reason, message, end_time, image_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		enabled = VALUES(enabled),
		reason = VALUES(reason),
		message = VALUES(message),
		end_time = VALUES(end_time),
		image_url = VALUES(image_url),
		updated_at = VALUES(updated_at)`

	_, err := s.DB.Exec(query,
		flag.Surface, flag.Enabled, flag.Reason, flag.Message,
		flag.EndTime, flag.ImageURL, flag.UpdatedAt,
	)
	return err
}

// MySQLSettings implements SettingsStore. The customization document is
// one JSON blob in a single-row table.
type MySQLSettings struct {
	DB *sql.DB
}

func (s *MySQLSettings) Get() (models.SiteSettings, bool, error) {
	var blob string
	err := s.DB.QueryRow("SELECT document FROM site_settings WHERE id = 1").Scan(&blob)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.SiteSettings{}, false, nil
		}
		return models.SiteSettings{}, false, err
	}

	var settings models.SiteSettings
	if err := json.Unmarshal([]byte(blob), &settings); err != nil {
		return models.SiteSettings{}, false, fmt.Errorf("failed to decode site settings: %w", err)
	}
	return settings, true, nil
}

func (s *MySQLSettings) Set(settings models.SiteSettings) error {
	blob, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode site settings: %w", err)
	}

	query := `
		INSERT INTO site_settings (id, document) VALUES (1, ?)
		ON DUPLICATE KEY UPDATE document = VALUES(document)`
	_, err = s.DB.Exec(query, string(blob))
	return err
}
