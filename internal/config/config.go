// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"APP_PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"` // "development", "production", "testing"

	// PostgreSQL connection. DATABASE_URL wins when set; POSTGRES_URL is
	// accepted as an alias for hosted-Postgres providers that export it.
	DatabaseURL string `env:"DATABASE_URL"`
	PostgresURL string `env:"POSTGRES_URL"`

	DBHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	DBPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBUser     string `env:"POSTGRES_USER" envDefault:"kyctrust"`
	DBPassword string `env:"POSTGRES_PASSWORD" envDefault:"changeme"`
	DBName     string `env:"POSTGRES_DB" envDefault:"kyctrust"`

	// Valkey (Redis-compatible cache for published content)
	ValkeyHost     string `env:"VALKEY_HOST" envDefault:"localhost"`
	ValkeyPort     string `env:"VALKEY_PORT" envDefault:"6379"`
	ValkeyPassword string `env:"VALKEY_PASSWORD"`

	// Security settings
	RateLimitWhitelist []string `env:"RATE_LIMIT_WHITELIST" envSeparator:","`

	// Coarse dashboard gate. When set, admin API routes additionally
	// require the dash_unlock cookie obtained with this code. Empty
	// disables the gate.
	DashUnlockCode string `env:"DASH_UNLOCK_CODE"`

	// Seeding (always on in development)
	DoSeed bool `env:"DO_SEED" envDefault:"false"`
}

// Load parses environment variables and returns a Config struct.
// Returns an error if critical values are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}

	if cfg.Env == "production" && cfg.DatabaseURL == "" && cfg.PostgresURL == "" && cfg.DBPassword == "changeme" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD or DATABASE_URL must be set in production")
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string. An explicit DATABASE_URL or
// POSTGRES_URL takes precedence over the individual POSTGRES_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// WhitelistedIPs returns the trimmed set of IPs exempt from rate limiting.
func (c *Config) WhitelistedIPs() []string {
	out := make([]string, 0, len(c.RateLimitWhitelist))
	for _, ip := range c.RateLimitWhitelist {
		if ip = strings.TrimSpace(ip); ip != "" {
			out = append(out, ip)
		}
	}
	return out
}
