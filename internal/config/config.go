package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultDatabaseDSN = "host=localhost user=postgres password=postgres dbname=lab_inventory port=5432 sslmode=disable"
	DefaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort        string
	DatabaseDSN     string
	JWTSecret       string
	JWTTTL          time.Duration
	CORSOrigins     string
	SupplyImagePath string // directory where uploaded supply images are written
	LogLevel        string

	Admin AdminConfig

	ReorderDigestCron string // empty disables the job
	Timezone          string
}

// AdminConfig is the bootstrap account created on first start.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Load reads an optional .env file and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL is not a duration: %w", err)
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:     getEnv("DATABASE_DSN", DefaultDatabaseDSN),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTTTL:          ttl,
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", DefaultCORSOrigins),
		SupplyImagePath: getEnv("SUPPLY_IMAGE_PATH", "./supply-images"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "System Administrator"),
			Email:    getEnv("ADMIN_EMAIL", "admin@inventory.local"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		ReorderDigestCron: getEnv("REORDER_DIGEST_CRON", ""),
		Timezone:          getEnv("TIMEZONE", "UTC"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT must not be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Admin.Email == "" {
		return errors.New("ADMIN_EMAIL must not be empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Timezone, err)
	}
	return nil
}

// Warnings lists insecure defaults that are acceptable in development only.
func (c *Config) Warnings() []string {
	var out []string
	if c.DatabaseDSN == DefaultDatabaseDSN {
		out = append(out, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == DefaultCORSOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.Admin.Password == "" {
		out = append(out, "ADMIN_PASSWORD is empty, the bootstrap admin will not be created")
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
