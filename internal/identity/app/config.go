package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for tokens (default: agentdesk-identity)

	BootstrapToken string // Optional: token required to create the first admin

	DatabaseFile         string        // Path to SQLite database file (default: ./identity.db)
	PepperFile           string        // Path to pepper file for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-invitation sweep interval (default: 1h)

	AccessTokenTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 168h)

	FrontendURL string // Browser origin for redirects and invitation links (default: http://localhost:3000)

	// Google federated login. Federated routes are only registered when
	// the client id is set.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	OAuthStateKey      string // HMAC key for state signing; generated when empty

	// SMTP delivery for invitation email. When the host is empty the
	// log-only mailer is used instead.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("IDENTITY_ISSUER", "agentdesk-identity"),
		BootstrapToken:       os.Getenv("BOOTSTRAP_TOKEN"), // Optional: if set, enables POST /v1/bootstrap
		DatabaseFile:         getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:           getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		AccessTokenTTL:  getEnvDurationOrDefault("IDENTITY_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDurationOrDefault("IDENTITY_REFRESH_TTL", 7*24*time.Hour),

		FrontendURL: getEnvOrDefault("IDENTITY_FRONTEND_URL", "http://localhost:3000"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		OAuthStateKey:      os.Getenv("OAUTH_STATE_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@agentdesk.local"),
	}

	return cfg
}

// IsProd reports whether the service runs with production transport
// expectations (https origins, Secure cookies).
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "staging"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer minutes also accepted
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
