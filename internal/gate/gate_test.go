package gate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozsignals/mozsignals-api/internal/models"
	"github.com/mozsignals/mozsignals-api/internal/store"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func completeAccount() models.Account {
	return models.Account{
		ID:            1,
		CredentialRef: 10,
		Username:      "carlos",
		Email:         "carlos@example.com",
		Activation:    models.ActivationActive,
		GrantedDays:   2,
		ExpiresAt:     t0.Add(48 * time.Hour),
	}
}

func TestClassifyOrdering(t *testing.T) {
	acc := completeAccount()
	disabled := completeAccount()
	disabled.Activation = models.ActivationDisabled
	expired := completeAccount()
	expired.ExpiresAt = t0.Add(-time.Minute)
	partial := models.Account{ID: 2, Activation: models.ActivationActive}
	longDisabled := completeAccount()
	longDisabled.ExpiresAt = t0.Add(100 * 24 * time.Hour)
	longDisabled.Activation = models.ActivationDisabled

	enabledFlag := &models.MaintenanceFlag{Surface: "aviator1", Enabled: true, Reason: "upgrade"}
	offFlag := &models.MaintenanceFlag{Surface: "mines", Enabled: false}

	tests := []struct {
		name            string
		in              Input
		wantState       string
		wantOverlay     bool
		wantInvalidated bool
	}{
		{"no caller", Input{CallerPresent: false, Now: t0}, StateUnauthenticated, false, false},
		{"no record", Input{CallerPresent: true, Now: t0}, StateNoRecord, false, false},
		{"partial record", Input{CallerPresent: true, Record: &partial, Now: t0}, StateNoRecord, false, true},
		{"expired", Input{CallerPresent: true, Record: &expired, Now: t0}, StateExpired, false, false},
		// An operator can disable an account whose window is nowhere
		// near elapsed; that must read as Disabled, not Active.
		{"disabled overrides validity", Input{CallerPresent: true, Record: &longDisabled, Now: t0}, StateDisabled, false, false},
		{"active", Input{CallerPresent: true, Record: &acc, Now: t0}, StateActive, false, false},
		{"active with maintenance overlay", Input{CallerPresent: true, Record: &acc, Flag: enabledFlag, Now: t0}, StateActive, true, false},
		{"active with disabled flag", Input{CallerPresent: true, Record: &acc, Flag: offFlag, Now: t0}, StateActive, false, false},
		{"disabled beats maintenance", Input{CallerPresent: true, Record: &disabled, Flag: enabledFlag, Now: t0}, StateDisabled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.in)
			assert.Equal(t, tt.wantState, out.State)
			assert.Equal(t, tt.wantOverlay, out.Maintenance != nil)
			assert.Equal(t, tt.wantInvalidated, out.InvalidateSession)
		})
	}
}

func TestCheckMapsStoreFailureToUnavailable(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	accounts.FailWith = errors.New("connection refused")

	g := &Gate{Accounts: accounts, Flags: store.NewMemoryFlags()}
	out := g.Check(1, "aviator1", t0)

	// A store failure must never read as "your account doesn't exist".
	assert.Equal(t, StateUnavailable, out.State)
}

func TestCheckMissingAccountIsNoRecord(t *testing.T) {
	g := &Gate{Accounts: store.NewMemoryAccounts(), Flags: store.NewMemoryFlags()}
	out := g.Check(42, "", t0)
	assert.Equal(t, StateNoRecord, out.State)
}

func TestCheckPersistsLazyExpiry(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	acc := completeAccount()
	acc.ExpiresAt = t0.Add(-time.Hour)
	id, err := accounts.Create(acc)
	require.NoError(t, err)

	g := &Gate{Accounts: accounts, Flags: store.NewMemoryFlags()}
	out := g.Check(id, "", t0)
	assert.Equal(t, StateExpired, out.State)

	stored, found, err := accounts.Get(id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.ActivationDisabled, stored.Activation)

	// Second pass observes the already-disabled record; still Expired,
	// nothing further to converge.
	out = g.Check(id, "", t0)
	assert.Equal(t, StateExpired, out.State)
}

func TestCheckMaintenanceOverlayPerSurface(t *testing.T) {
	accounts := store.NewMemoryAccounts()
	id, err := accounts.Create(completeAccount())
	require.NoError(t, err)

	flags := store.NewMemoryFlags()
	require.NoError(t, flags.Set(models.MaintenanceFlag{
		Surface: "aviator1",
		Enabled: true,
		Reason:  "Atualização do robô",
		EndTime: t0.Add(6 * time.Hour),
	}))
	require.NoError(t, flags.Set(models.MaintenanceFlag{Surface: "mines", Enabled: false}))

	g := &Gate{Accounts: accounts, Flags: flags}

	flagged := g.Check(id, "aviator1", t0)
	assert.Equal(t, StateActive, flagged.State)
	require.NotNil(t, flagged.Maintenance)
	assert.Equal(t, "Atualização do robô", flagged.Maintenance.Reason)

	clear := g.Check(id, "mines", t0)
	assert.Equal(t, StateActive, clear.State)
	assert.Nil(t, clear.Maintenance)
}
