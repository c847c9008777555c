package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWTSecret   string

	// IMAP mailbox the sync engine watches
	IMAPHost        string
	IMAPPort        int
	IMAPSecure      bool
	IMAPUser        string
	IMAPPassword    string
	IMAPMailbox     string
	AuthorizedInbox string

	// SourceMode selects the deployment profile: "store" runs the
	// background sync engine against the database, "live" queries the
	// mailbox on demand through the short-TTL cache.
	SourceMode string

	LookbackMinutes int
	RecencyMinutes  int
	SyncInterval    time.Duration
	CacheFreshness  time.Duration

	AllowedDomains    []string
	AdminPasswords    []string
	AdminSessionHours int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	encryption := strings.ToLower(getEnv("IMAP_ENCRYPTION", "ssl"))

	syncInterval := 10 * time.Second
	if raw := os.Getenv("SYNC_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			syncInterval = parsed
		}
	}

	cacheFreshness := 8 * time.Second
	if raw := os.Getenv("IMAP_MIN_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			cacheFreshness = parsed
		}
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: strings.ToLower(getEnv("APP_ENV", "development")),
		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=codes port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		IMAPHost:        strings.TrimSpace(getEnv("IMAP_HOST", "imap.gmail.com")),
		IMAPPort:        getEnvInt("IMAP_PORT", 993),
		IMAPSecure:      encryption != "" && encryption != "none",
		IMAPUser:        strings.TrimSpace(os.Getenv("IMAP_USER")),
		IMAPPassword:    strings.TrimSpace(os.Getenv("IMAP_PASSWORD")),
		IMAPMailbox:     strings.TrimSpace(getEnv("IMAP_MAILBOX", "[Gmail]/All Mail")),
		AuthorizedInbox: strings.ToLower(strings.TrimSpace(os.Getenv("AUTHORIZED_INBOX"))),

		SourceMode: strings.ToLower(getEnv("SOURCE_MODE", "store")),

		LookbackMinutes: getEnvInt("LOOKBACK_MINUTES", 5),
		RecencyMinutes:  getEnvInt("RECENCY_MINUTES", 10),
		SyncInterval:    syncInterval,
		CacheFreshness:  cacheFreshness,

		AllowedDomains:    splitList(os.Getenv("ALLOWED_DOMAINS"), true),
		AdminPasswords:    splitList(os.Getenv("ADMIN_PASSWORDS"), false),
		AdminSessionHours: getEnvInt("ADMIN_SESSION_HOURS", 24),
	}
}

// HasIMAPCredentials reports whether the mailbox credentials are configured.
// Every mailbox operation fails without them.
func (c *Config) HasIMAPCredentials() bool {
	return c.IMAPUser != "" && c.IMAPPassword != ""
}

// IsProduction reports whether the server runs in production. Session
// cookies are marked Secure only there, so local HTTP still works.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(raw string, lower bool) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if lower {
			p = strings.ToLower(p)
		}
		out = append(out, p)
	}
	return out
}
