// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and handed to components through their
constructors. No package keeps config in a global.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Portal API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) backing server-side sessions
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// SessionSecret signs the session cookie value.
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`

	// RSA key pair for bearer token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required,notEmpty"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required,notEmpty"`

	// Lifetimes
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL"   envDefault:"24h"`
	SessionTTL        time.Duration `env:"SESSION_TTL"        envDefault:"24h"`
	InactivityTimeout time.Duration `env:"INACTIVITY_TIMEOUT" envDefault:"30m"`

	// Session cookie
	SessionCookieName   string `env:"SESSION_COOKIE_NAME"   envDefault:"portal_sid"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"portal.app"`
	ExtraOrigins        string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// Fails if any field marked 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("config: SESSION_SECRET must be at least 32 bytes")
	}
	if c.InactivityTimeout <= 0 {
		return fmt.Errorf("config: INACTIVITY_TIMEOUT must be positive")
	}
	if c.SessionTTL < c.InactivityTimeout {
		return fmt.Errorf("config: SESSION_TTL (%s) must not be shorter than INACTIVITY_TIMEOUT (%s)", c.SessionTTL, c.InactivityTimeout)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginAllowed reports whether a CORS origin may receive credentialed responses.
func (c *Config) OriginAllowed(origin string) bool {
	if c.AllowedOriginSuffix != "" && strings.HasSuffix(origin, c.AllowedOriginSuffix) {
		return true
	}
	for _, extra := range strings.Split(c.ExtraOrigins, ",") {
		if extra = strings.TrimSpace(extra); extra != "" && extra == origin {
			return true
		}
	}
	return false
}
