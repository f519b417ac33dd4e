package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mozsignals/mozsignals-api/internal/models"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func activeAccount(expiresAt time.Time) models.Account {
	return models.Account{
		ID:            1,
		CredentialRef: 10,
		Email:         "ana@example.com",
		Activation:    models.ActivationActive,
		GrantedDays:   2,
		ExpiresAt:     expiresAt,
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name       string
		activation string
		expiresAt  time.Time
		now        time.Time
		want       bool
	}{
		{"active before expiry", models.ActivationActive, t0.Add(48 * time.Hour), t0.Add(24 * time.Hour), true},
		{"active at exact expiry", models.ActivationActive, t0, t0, false},
		{"active after expiry", models.ActivationActive, t0, t0.Add(time.Second), false},
		{"disabled before expiry", models.ActivationDisabled, t0.Add(100 * 24 * time.Hour), t0, false},
		{"disabled after expiry", models.ActivationDisabled, t0, t0.Add(time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := activeAccount(tt.expiresAt)
			acc.Activation = tt.activation
			assert.Equal(t, tt.want, IsValid(acc, tt.now))
		})
	}
}

func TestGrantResetsForward(t *testing.T) {
	// Prior window still has 10 days left; a 2-day grant must yield an
	// expiry exactly 2 days out, not 12.
	acc := activeAccount(t0.Add(10 * 24 * time.Hour))
	granted := Grant(acc, 2, t0)

	assert.Equal(t, t0.Add(2*24*time.Hour), granted.ExpiresAt)
	assert.Equal(t, 2, granted.GrantedDays)
	assert.Equal(t, models.ActivationActive, granted.Activation)
}

func TestGrantReactivatesDisabledAccount(t *testing.T) {
	acc := activeAccount(t0.Add(-time.Hour))
	acc.Activation = models.ActivationDisabled

	granted := Grant(acc, 7, t0)

	assert.Equal(t, models.ActivationActive, granted.Activation)
	assert.Equal(t, t0.Add(7*24*time.Hour), granted.ExpiresAt)
}

func TestGrantFreshWindowScenario(t *testing.T) {
	acc := Grant(activeAccount(time.Time{}), 2, t0)

	assert.True(t, IsValid(acc, t0.Add(24*time.Hour)))
	assert.False(t, IsValid(acc, t0.Add(2*24*time.Hour+time.Second)))
}

func TestMarkExpiredIfNeeded(t *testing.T) {
	t.Run("expired active account is disabled", func(t *testing.T) {
		acc := activeAccount(t0.Add(-time.Minute))
		out, changed := MarkExpiredIfNeeded(acc, t0)
		assert.True(t, changed)
		assert.Equal(t, models.ActivationDisabled, out.Activation)
	})

	t.Run("valid account untouched", func(t *testing.T) {
		acc := activeAccount(t0.Add(time.Hour))
		out, changed := MarkExpiredIfNeeded(acc, t0)
		assert.False(t, changed)
		assert.Equal(t, acc, out)
	})

	t.Run("idempotent", func(t *testing.T) {
		acc := activeAccount(t0.Add(-time.Minute))
		once, changed := MarkExpiredIfNeeded(acc, t0)
		assert.True(t, changed)

		twice, changedAgain := MarkExpiredIfNeeded(once, t0)
		assert.False(t, changedAgain)
		assert.Equal(t, once, twice)
	})
}
