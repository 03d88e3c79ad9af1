// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DeviceTokenSecret is the HMAC key signing both device and portal tokens.
	// Rotating it invalidates every outstanding token.
	DeviceTokenSecret string `mapstructure:"DEVICE_TOKEN_SECRET"`
	// PortalTokenTTL is the portal login token lifetime (e.g. "12h").
	PortalTokenTTL string `mapstructure:"PORTAL_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// RateLimitMax is the per-IP request budget for login and intake endpoints.
	RateLimitMax int `mapstructure:"RATE_LIMIT_MAX"`
	// RateLimitWindow is the fixed window for RateLimitMax (e.g. "1m").
	RateLimitWindow string `mapstructure:"RATE_LIMIT_WINDOW"`
	// OTLPEndpoint is the OTLP gRPC collector address; empty disables tracing export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Seed-only: bootstrap admin credentials. Never read by the server.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DEVICE_TOKEN_SECRET", "")
	v.SetDefault("PORTAL_TOKEN_TTL", "12h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RATE_LIMIT_MAX", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DeviceTokenSecret == "" {
		return nil, errors.New("config: DEVICE_TOKEN_SECRET must be set")
	}
	if cfg.Env == "production" && len(cfg.DeviceTokenSecret) < 32 {
		return nil, errors.New("config: DEVICE_TOKEN_SECRET must be at least 32 bytes in production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, errors.New("config: RATE_LIMIT_MAX must be positive")
	}

	return &cfg, nil
}

// PortalTTL parses PortalTokenTTL as a time.Duration. Returns 12h if unset or invalid.
func (c *Config) PortalTTL() time.Duration {
	d, err := time.ParseDuration(c.PortalTokenTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// RateWindow parses RateLimitWindow as a time.Duration. Returns 1m if unset or invalid.
func (c *Config) RateWindow() time.Duration {
	d, err := time.ParseDuration(c.RateLimitWindow)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
