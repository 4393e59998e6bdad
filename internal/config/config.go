package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	DBUrl     string `envconfig:"DB_URL"`
	JWTSecret string `envconfig:"JWT_SECRET"`
	AppEnv    string `envconfig:"APP_ENV" default:"production"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	EnableDocs bool `envconfig:"ENABLE_API_DOCS" default:"false"`

	DBMaxConns int32 `envconfig:"DB_MAX_CONNS" default:"10"`

	// Upper bound for a single service call against the database.
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	PaymentSuccessRate float64 `envconfig:"PAYMENT_SUCCESS_RATE" default:"0.9"`
	PaymentCurrency    string  `envconfig:"PAYMENT_CURRENCY" default:"USD"`
	MeetingBaseURL     string  `envconfig:"MEETING_BASE_URL" default:"https://meet.learnroad.dev"`

	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseBucket     string `envconfig:"SUPABASE_BUCKET"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_KEY"`

	RedisURL           string `envconfig:"REDIS_URL"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
}

func LoadConfig() (*Config, error) {
	// Deployed environments inject variables directly; .env is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentSuccessRate < 0 || cfg.PaymentSuccessRate > 1 {
		return nil, fmt.Errorf("PAYMENT_SUCCESS_RATE must be between 0 and 1")
	}
	if cfg.DBMaxConns < 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must not be negative")
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	cfg.AppEnv = normalizeEnv(cfg.AppEnv)
	cfg.PaymentCurrency = strings.ToUpper(strings.TrimSpace(cfg.PaymentCurrency))
	return &cfg, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}

// DocsEnabled exposes the route index only to opted-in development servers.
func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

func (c *Config) StorageEnabled() bool {
	return c != nil && c.SupabaseURL != "" && c.SupabaseBucket != "" && c.SupabaseServiceKey != ""
}
