package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	RateLimit          string   // ulule format, e.g. "100-M"; empty disables limiting
	CORSAllowedOrigins []string

	PosthogAPIKey   string
	PosthogEndpoint string

	ExchangeRateAPIURL   string
	ExchangeRateCacheTTL time.Duration

	// SMTP; email notifications are off when SMTPHost is empty
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	FrontendBaseURL string

	NotifyWorkers   int
	NotifyQueueSize int

	// Finalize submissions that have neither a manager approver nor an approval rule.
	AutoApproveWithoutWorkflow bool

	TracingEnabled bool
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("JWT_ISSUER", "expense-approval-app")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("POSTHOG_API_KEY", "")
	v.SetDefault("POSTHOG_ENDPOINT", "")
	v.SetDefault("EXCHANGE_RATE_API_URL", "https://api.exchangerate-api.com/v4/latest")
	v.SetDefault("EXCHANGE_RATE_CACHE_TTL", "1h")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("EMAIL_FROM", "noreply@expense-approval.local")
	v.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	v.SetDefault("AUTO_APPROVE_WITHOUT_WORKFLOW", false)
	v.SetDefault("TRACING_ENABLED", false)

	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:                v.GetString("PGSQL_URL"),
		Port:                       v.GetString("PORT"),
		IsProduction:               v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:              v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:             v.GetString("MIGRATIONS_PATH"),
		JWTSecret:                  v.GetString("JWT_SECRET"),
		JWTIssuer:                  v.GetString("JWT_ISSUER"),
		RateLimit:                  strings.TrimSpace(v.GetString("RATE_LIMIT")),
		CORSAllowedOrigins:         splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		PosthogAPIKey:              v.GetString("POSTHOG_API_KEY"),
		PosthogEndpoint:            v.GetString("POSTHOG_ENDPOINT"),
		ExchangeRateAPIURL:         strings.TrimRight(v.GetString("EXCHANGE_RATE_API_URL"), "/"),
		SMTPHost:                   v.GetString("SMTP_HOST"),
		SMTPPort:                   v.GetInt("SMTP_PORT"),
		SMTPUsername:               v.GetString("SMTP_USERNAME"),
		SMTPPassword:               v.GetString("SMTP_PASSWORD"),
		EmailFrom:                  v.GetString("EMAIL_FROM"),
		FrontendBaseURL:            v.GetString("FRONTEND_BASE_URL"),
		NotifyWorkers:              v.GetInt("NOTIFY_WORKERS"),
		NotifyQueueSize:            v.GetInt("NOTIFY_QUEUE_SIZE"),
		AutoApproveWithoutWorkflow: v.GetBool("AUTO_APPROVE_WITHOUT_WORKFLOW"),
		TracingEnabled:             v.GetBool("TRACING_ENABLED"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.JWTExpiryDuration = parseDuration(v.GetString("JWT_EXPIRY_DURATION"), time.Hour, "JWT_EXPIRY_DURATION")
	cfg.ExchangeRateCacheTTL = parseDuration(v.GetString("EXCHANGE_RATE_CACHE_TTL"), time.Hour, "EXCHANGE_RATE_CACHE_TTL")

	if cfg.NotifyWorkers <= 0 {
		log.Printf("Warning: Invalid value for NOTIFY_WORKERS (%d). Defaulting to 4.\n", cfg.NotifyWorkers)
		cfg.NotifyWorkers = 4
	}
	if cfg.NotifyQueueSize <= 0 {
		cfg.NotifyQueueSize = 256
	}
	if cfg.SMTPHost == "" {
		log.Println("Warning: SMTP_HOST not set. Email notifications are disabled.")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
