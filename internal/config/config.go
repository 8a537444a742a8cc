package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/shared/identity"
)

// Config chứa toàn bộ application configuration, populate từ environment variables
type Config struct {
	App      AppConfig
	Database *database.DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	CORSOrigins []string
}

type RedisConfig struct {
	Host       string
	Password   string
	DB         int
	FeatureTTL time.Duration
}

type AuthConfig struct {
	// Mode is "header" (trusted X-User-ID) or "jwt" (bearer tokens)
	Mode        string
	Header      string
	JWTSecret   string
	TokenTTL    time.Duration
	VerifyUsers bool
}

// WorkerConfig configures cmd/worker (asynq server and scheduler)
type WorkerConfig struct {
	Concurrency int
	// ReconcileCron is the cron spec of the vote counter reconciliation; empty disables it
	ReconcileCron string
	HealthPort    string
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	dbCfg, err := LoadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	featureTTL, err := getEnvDuration("REDIS_FEATURE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Feature Voting API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Database: dbCfg,
		Redis: RedisConfig{
			Host:       getEnv("REDIS_HOST", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			FeatureTTL: featureTTL,
		},
		Auth: AuthConfig{
			Mode:        strings.ToLower(getEnv("AUTH_MODE", identity.ModeHeader)),
			Header:      getEnv("AUTH_HEADER", identity.DefaultHeader),
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenTTL:    tokenTTL,
			VerifyUsers: getEnvBool("AUTH_VERIFY_USERS", false),
		},
		Worker: WorkerConfig{
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 5),
			ReconcileCron: getEnv("WORKER_RECONCILE_CRON", "*/15 * * * *"),
			HealthPort:    getEnv("WORKER_HEALTH_PORT", "9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case identity.ModeHeader, identity.ModeJWT:
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", identity.ModeHeader, identity.ModeJWT, c.Auth.Mode)
	}

	if c.Auth.Mode == identity.ModeJWT && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set when AUTH_MODE=jwt")
	}

	if c.App.Environment == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
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
