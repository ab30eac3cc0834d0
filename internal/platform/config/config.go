// Copyright (c) 2026 Libria. All rights reserved.
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

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Mailer) via constructors.
  - Zero Hidden State: Core logic never reads ambient environment variables;
    everything flows through this struct.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Libria API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// AuthProvider selects how bearer tokens are resolved:
	// "session" (opaque DB-backed tokens) or "jwt" (externally issued RS256).
	AuthProvider string `env:"AUTH_PROVIDER" envDefault:"session"`

	// RSA key material for the "jwt" provider. Ignored by "session" deployments.
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`

	// Circulation policy
	LoanPeriodDays  int `env:"LOAN_PERIOD_DAYS"   envDefault:"14"`
	MaxRenewals     int `env:"MAX_RENEWALS"       envDefault:"2"`
	FinePerDayCents int `env:"FINE_PER_DAY_CENTS" envDefault:"50"`

	// Outbound email (SMTP relay)
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"     envDefault:"no-reply@libria.app"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.AuthProvider != "session" && cfg.AuthProvider != "jwt" {
		return nil, fmt.Errorf("config: AUTH_PROVIDER must be \"session\" or \"jwt\", got %q", cfg.AuthProvider)
	}

	if cfg.AuthProvider == "jwt" && cfg.JWTPubKeyPath == "" {
		return nil, fmt.Errorf("config: JWT_PUBLIC_KEY_PATH is required when AUTH_PROVIDER=jwt")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
