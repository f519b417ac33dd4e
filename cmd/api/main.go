package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mozsignals/mozsignals-api/internal/auth"
	"github.com/mozsignals/mozsignals-api/internal/config"
	"github.com/mozsignals/mozsignals-api/internal/credentials"
	"github.com/mozsignals/mozsignals-api/internal/database"
	"github.com/mozsignals/mozsignals-api/internal/gate"
	"github.com/mozsignals/mozsignals-api/internal/handlers"
	"github.com/mozsignals/mozsignals-api/internal/payment"
	"github.com/mozsignals/mozsignals-api/internal/provision"
	"github.com/mozsignals/mozsignals-api/internal/routes"
	"github.com/mozsignals/mozsignals-api/internal/store"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Configuration ---
	cfg := config.Load()
	auth.SetSecret(cfg.JWTSecret)

	// 2. --- Database Connection ---
	db, err := database.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 3. --- Stores & Services ---
	accounts := &store.MySQLAccounts{DB: db}
	flags := &store.MySQLFlags{DB: db}
	settings := &store.MySQLSettings{DB: db}
	creds := &credentials.MySQLService{DB: db}

	gateway := payment.NewClient(cfg.GibrapayBaseURL, cfg.GibrapayWalletID, cfg.GibrapayAPIKey)

	accessGate := &gate.Gate{Accounts: accounts, Flags: flags}

	provisioner := &provision.Workflow{
		Gateway:     gateway,
		Credentials: creds,
		Accounts:    accounts,
		Price:       cfg.PackagePrice,
		AccessDays:  cfg.AccessDays,
		ConfirmWait: cfg.PaymentConfirmWait,
	}

	// --- Application Setup ---
	// We inject ALL dependencies into the Handlers struct.
	app := &handlers.Handlers{
		Config:        cfg,
		Accounts:      accounts,
		Flags:         flags,
		Settings:      settings,
		Credentials:   creds,
		Gate:          accessGate,
		Provisioner:   provisioner,
		SettingsCache: gocache.New(5*time.Minute, 10*time.Minute),
	}

	// --- 4. Background Workers (Cron) ---
	// Periodically disable accounts whose access window has elapsed, so
	// stale records don't sit active between logins.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		log.Println("Background Worker Started: Monitoring for expired subscriptions...")

		for range ticker.C {
			changed, err := app.ProcessExpiredAccounts()
			if err != nil {
				log.Printf("Expiry sweep failed: %v", err)
				continue
			}
			if changed > 0 {
				log.Printf("Expiry sweep disabled %d account(s)", changed)
			}
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	log.Printf("Starting MozSignals API server on port %s...", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
