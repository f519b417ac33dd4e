package store

import (
	"strings"
	"sync"
	"time"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

// MemoryAccounts is an in-memory AccountStore. Tests use it directly;
// it also lets the saga and gate be exercised without MySQL.
type MemoryAccounts struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.Account

	// FailWith, when set, makes every call return this error. Tests use
	// it to simulate an unavailable store.
	FailWith error
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{nextID: 1, byID: make(map[int64]models.Account)}
}

func (s *MemoryAccounts) Get(id int64) (models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.Account{}, false, s.FailWith
	}
	acc, ok := s.byID[id]
	return acc, ok, nil
}

func (s *MemoryAccounts) GetByCredential(ref int64) (models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.Account{}, false, s.FailWith
	}
	for _, acc := range s.byID {
		if acc.CredentialRef == ref {
			return acc, true, nil
		}
	}
	return models.Account{}, false, nil
}

func (s *MemoryAccounts) Create(account models.Account) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	account.ID = s.nextID
	s.nextID++
	s.byID[account.ID] = account
	return account.ID, nil
}

func (s *MemoryAccounts) Update(id int64, fields AccountUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	acc, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	if fields.Username != nil {
		acc.Username = *fields.Username
	}
	if fields.PhoneNumber != nil {
		acc.PhoneNumber = *fields.PhoneNumber
	}
	if fields.Activation != nil {
		acc.Activation = *fields.Activation
	}
	if fields.GrantedDays != nil {
		acc.GrantedDays = *fields.GrantedDays
	}
	if fields.ExpiresAt != nil {
		acc.ExpiresAt = *fields.ExpiresAt
	}
	if fields.LoginHistory != nil {
		acc.LoginHistory = *fields.LoginHistory
	}
	if fields.LastLogin != nil {
		acc.LastLogin = fields.LastLogin
	}
	acc.UpdatedAt = time.Now()

	s.byID[id] = acc
	return nil
}

func (s *MemoryAccounts) List(search string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	term := strings.ToLower(search)
	var accounts []models.Account
	for _, acc := range s.byID {
		if term == "" ||
			strings.Contains(strings.ToLower(acc.Username), term) ||
			strings.Contains(strings.ToLower(acc.Email), term) {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

// MemoryFlags is an in-memory FlagStore.
type MemoryFlags struct {
	mu        sync.Mutex
	bySurface map[string]models.MaintenanceFlag

	FailWith error
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{bySurface: make(map[string]models.MaintenanceFlag)}
}

func (s *MemoryFlags) Get(surface string) (models.MaintenanceFlag, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return models.MaintenanceFlag{}, false, s.FailWith
	}
	flag, ok := s.bySurface[surface]
	return flag, ok, nil
}

func (s *MemoryFlags) Set(flag models.MaintenanceFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.bySurface[flag.Surface] = flag
	return nil
}

// MemorySettings is an in-memory SettingsStore.
type MemorySettings struct {
	mu       sync.Mutex
	settings models.SiteSettings
	present  bool
}

func NewMemorySettings() *MemorySettings {
	return &MemorySettings{}
}

func (s *MemorySettings) Get() (models.SiteSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, s.present, nil
}

func (s *MemorySettings) Set(settings models.SiteSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.present = true
	return nil
}
