// Package config provides configuration management for the relay standalone
// server. Settings are loaded from environment variables with sensible
// defaults, following 12-factor app principles; an optional .env file is
// read first.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the relay server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Relay    RelayConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"sqlite3"` // mysql, postgres, sqlite3
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"relay"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_NAME" envDefault:"relay.db"`
	Prefix   string `env:"DB_PREFIX" envDefault:"relay_"` // Table prefix
}

// RelayConfig holds broker-specific configuration.
type RelayConfig struct {
	// SweepInterval is the expiry-sweep cadence. Any value that runs at
	// least once per the 12-hour retention window keeps the store bounded.
	SweepInterval time.Duration `env:"RELAY_SWEEP_INTERVAL" envDefault:"1h"`
}

// Load loads configuration from the environment, reading a .env file first
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "mysql", "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Relay.SweepInterval <= 0 {
		return nil, fmt.Errorf("RELAY_SWEEP_INTERVAL must be positive")
	}

	return cfg, nil
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	case "sqlite3":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}
