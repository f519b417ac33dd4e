package models

import "time"

// Surfaces that can be placed under maintenance. Each bot page checks
// its own flag on entry.
var Surfaces = []string{"aviator1", "aviator2", "mines"}

// IsKnownSurface reports whether name is one of the gated bot pages.
func IsKnownSurface(name string) bool {
	for _, s := range Surfaces {
		if s == name {
			return true
		}
	}
	return false
}

// MaintenanceFlag is the operator-controlled banner for one surface.
// It blocks the page cosmetically; it does NOT touch subscription
// validity.
type MaintenanceFlag struct {
	Surface   string    `json:"surface" db:"surface"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	Reason    string    `json:"reason" db:"reason"`
	Message   string    `json:"message" db:"message"`
	EndTime   time.Time `json:"endTime" db:"end_time"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
