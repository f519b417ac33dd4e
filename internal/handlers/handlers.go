package handlers

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/mozsignals/mozsignals-api/internal/config"
	"github.com/mozsignals/mozsignals-api/internal/credentials"
	"github.com/mozsignals/mozsignals-api/internal/gate"
	"github.com/mozsignals/mozsignals-api/internal/provision"
	"github.com/mozsignals/mozsignals-api/internal/store"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Config      config.Config
	Accounts    store.AccountStore
	Flags       store.FlagStore
	Settings    store.SettingsStore
	Credentials credentials.Service
	Gate        *gate.Gate
	Provisioner *provision.Workflow

	// Read-through cache for the public customization document, so the
	// landing page doesn't hit the database on every visit.
	SettingsCache *gocache.Cache
}
