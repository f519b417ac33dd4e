package models

import "time"

// SiteSettings is the cosmetic customization document the admin console
// edits and the front-end applies on load. Stored as a single record.
type SiteSettings struct {
	Font      FontSettings  `json:"font"`
	Colors    ColorSettings `json:"colors"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type FontSettings struct {
	Enabled    bool   `json:"enabled"`
	FontFamily string `json:"fontFamily"`
	FontSize   string `json:"fontSize"` // small | normal | large
}

type ColorSettings struct {
	Enabled      bool   `json:"enabled"`
	PrimaryColor string `json:"primaryColor"`
	AccentColor  string `json:"accentColor"`
}
