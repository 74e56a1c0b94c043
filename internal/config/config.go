// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"LAPCMS_DB_PATH" envDefault:"./data/lapcms.db"`
	JWTSecret  string `env:"LAPCMS_JWT_SECRET,required"`
	ServerHost string `env:"LAPCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"LAPCMS_SERVER_PORT" envDefault:"3001"`
	Env        string `env:"LAPCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"LAPCMS_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"LAPCMS_REDIS_URL"`                         // Optional Redis URL for the site resolver cache
	CachePrefix  string `env:"LAPCMS_CACHE_PREFIX" envDefault:"lapcms:"` // Redis key prefix
	CacheTTL     int    `env:"LAPCMS_CACHE_TTL" envDefault:"60"`         // Site cache TTL in seconds
	CacheMaxSize int    `env:"LAPCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Object storage configuration (S3-compatible, including MinIO)
	S3Endpoint  string `env:"LAPCMS_S3_ENDPOINT" envDefault:"http://localhost:9000"`
	S3Region    string `env:"LAPCMS_S3_REGION" envDefault:"us-east-1"`
	S3AccessKey string `env:"LAPCMS_S3_ACCESS_KEY" envDefault:"minioadmin"`
	S3SecretKey string `env:"LAPCMS_S3_SECRET_KEY" envDefault:"minioadmin"`
	S3Bucket    string `env:"LAPCMS_S3_BUCKET" envDefault:"lap-cms"`
	S3PublicURL string `env:"LAPCMS_S3_PUBLIC_URL"` // External base URL for stored objects; defaults to endpoint/bucket

	// Rate limiting (requests per minute per client IP, 0 disables)
	RateLimitPerMinute int `env:"LAPCMS_RATE_LIMIT_PER_MINUTE" envDefault:"0"`

	// Audit log retention in days (0 keeps events forever)
	EventRetentionDays int `env:"LAPCMS_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"LAPCMS_DO_SEED" envDefault:"true"` // Create default accounts on first run
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// RateLimitEnabled returns true if per-client rate limiting is configured.
func (c Config) RateLimitEnabled() bool {
	return c.RateLimitPerMinute > 0
}

// PublicObjectURL returns the external base URL under which uploaded
// objects are reachable.
func (c Config) PublicObjectURL() string {
	if c.S3PublicURL != "" {
		return strings.TrimRight(c.S3PublicURL, "/")
	}
	return strings.TrimRight(c.S3Endpoint, "/") + "/" + c.S3Bucket
}

// MinJWTSecretLength is the minimum required length for the token signing
// secret. HMAC-SHA256 wants at least 32 bytes of key material.
const MinJWTSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate signing secret length
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("LAPCMS_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("LAPCMS_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("LAPCMS_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
