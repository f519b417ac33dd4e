package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the API needs. We build it ONCE in main()
// and inject it everywhere, so nothing reads os.Getenv at request time
// and tests can substitute fixture values.
type Config struct {
	// --- Server ---
	Port       string
	CORSOrigin string

	// --- Database ---
	DBDSN string

	// --- Auth ---
	JWTSecret string
	// SHA-256 hex of the admin authorization code. The admin console
	// sends the plain code; we hash and compare.
	AdminCodeSHA256 string

	// --- Gibrapay (M-Pesa gateway) ---
	GibrapayBaseURL  string
	GibrapayWalletID string
	GibrapayAPIKey   string

	// --- Package on sale ---
	// Fixed price and fixed grant length. These are product constants,
	// not computed values.
	PackagePrice float64
	AccessDays   int

	// How long we wait after a successful transfer initiation before
	// the single confirmation lookup. One flat wait, no backoff.
	PaymentConfirmWait time.Duration

	// Interval for the background expiry sweep.
	SweepInterval time.Duration
}

// Load reads the configuration from environment variables, falling back
// to the same defaults the original product shipped with so the binary
// runs out of the box.
func Load() Config {
	return Config{
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		DBDSN: getEnv("DB_DSN", "root:root@tcp(127.0.0.1:3306)/mozsignals?parseTime=true"),

		JWTSecret:       getEnv("JWT_SECRET", "A_VERY_SECURE_SECRET_KEY_REPLACE_LATER"),
		AdminCodeSHA256: getEnv("ADMIN_CODE_SHA256", ""),

		GibrapayBaseURL:  getEnv("GIBRAPAY_BASE_URL", "https://gibrapay.online/v1"),
		GibrapayWalletID: getEnv("GIBRAPAY_WALLET_ID", ""),
		GibrapayAPIKey:   getEnv("GIBRAPAY_API_KEY", ""),

		PackagePrice: getEnvFloat("PACKAGE_PRICE", 350),
		AccessDays:   getEnvInt("ACCESS_DAYS", 2),

		PaymentConfirmWait: getEnvDuration("PAYMENT_CONFIRM_WAIT", 3*time.Second),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 1*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
