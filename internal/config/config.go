// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinSecretKeyLength is the minimum required length for the secret key.
const MinSecretKeyLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"BLUESTEM_DB_PATH" envDefault:"./data/bluestem.db"`
	SecretKey  string `env:"BLUESTEM_SECRET_KEY,required"`
	ServerHost string `env:"BLUESTEM_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"BLUESTEM_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"BLUESTEM_ENV" envDefault:"development"`
	LogLevel   string `env:"BLUESTEM_LOG_LEVEL" envDefault:"info"`

	// Bootstrap admin credentials. Only honored in development when the
	// admin table is empty; production deployments provision admins
	// out of band.
	AdminEmail    string `env:"BLUESTEM_ADMIN_EMAIL"`
	AdminPassword string `env:"BLUESTEM_ADMIN_PASSWORD"`

	// Cache configuration
	RedisURL     string `env:"BLUESTEM_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"BLUESTEM_CACHE_PREFIX" envDefault:"bluestem:"` // Redis key prefix
	CacheTTL     int    `env:"BLUESTEM_CACHE_TTL" envDefault:"300"`         // Default cache TTL in seconds
	CacheMaxSize int    `env:"BLUESTEM_CACHE_MAX_SIZE" envDefault:"10000"`  // Max memory cache entries

	// Email provider (transactional + newsletter)
	EmailAPIKey     string `env:"BLUESTEM_EMAIL_API_KEY"`
	EmailFrom       string `env:"BLUESTEM_EMAIL_FROM" envDefault:"hello@bluestem.events"`
	EmailBaseURL    string `env:"BLUESTEM_EMAIL_BASE_URL" envDefault:"https://api.resend.com"`
	EmailAudienceID string `env:"BLUESTEM_EMAIL_AUDIENCE_ID"` // Newsletter audience/list id

	// CRM provider
	CRMAPIKey  string `env:"BLUESTEM_CRM_API_KEY"`
	CRMBaseURL string `env:"BLUESTEM_CRM_BASE_URL" envDefault:"https://api.hubapi.com"`

	// Calendar provider
	CalendarAPIKey  string `env:"BLUESTEM_CALENDAR_API_KEY"`
	CalendarID      string `env:"BLUESTEM_CALENDAR_ID"`
	CalendarBaseURL string `env:"BLUESTEM_CALENDAR_BASE_URL" envDefault:"https://www.googleapis.com/calendar/v3"`

	// Payments provider
	PaymentsAPIKey  string `env:"BLUESTEM_PAYMENTS_API_KEY"`
	PaymentsBaseURL string `env:"BLUESTEM_PAYMENTS_BASE_URL" envDefault:"https://api.stripe.com"`

	// Team messaging (incoming webhook URL)
	MessagingWebhookURL string `env:"BLUESTEM_MESSAGING_WEBHOOK_URL"`

	// AI lead-brief summarizer
	OpenAIAPIKey string `env:"BLUESTEM_OPENAI_API_KEY"`
	OpenAIModel  string `env:"BLUESTEM_OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// GeoIP configuration
	GeoIPDBPath string `env:"BLUESTEM_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file
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

// EmailEnabled returns true if the transactional email provider is configured.
func (c Config) EmailEnabled() bool {
	return c.EmailAPIKey != ""
}

// NewsletterEnabled returns true if the newsletter audience is configured.
func (c Config) NewsletterEnabled() bool {
	return c.EmailAPIKey != "" && c.EmailAudienceID != ""
}

// CRMEnabled returns true if the CRM provider is configured.
func (c Config) CRMEnabled() bool {
	return c.CRMAPIKey != ""
}

// CalendarEnabled returns true if the calendar provider is configured.
func (c Config) CalendarEnabled() bool {
	return c.CalendarAPIKey != "" && c.CalendarID != ""
}

// PaymentsEnabled returns true if the payments provider is configured.
func (c Config) PaymentsEnabled() bool {
	return c.PaymentsAPIKey != ""
}

// MessagingEnabled returns true if the team-messaging webhook is configured.
func (c Config) MessagingEnabled() bool {
	return c.MessagingWebhookURL != ""
}

// AIEnabled returns true if the lead-brief summarizer is configured.
func (c Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SecretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("BLUESTEM_SECRET_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSecretKeyLength, len(cfg.SecretKey))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SecretKey == weak {
			return nil, fmt.Errorf("BLUESTEM_SECRET_KEY is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SecretKey) {
		slog.Warn("BLUESTEM_SECRET_KEY has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if !cfg.IsDevelopment() {
		if cfg.AdminPassword != "" {
			slog.Warn("bootstrap admin credentials are ignored outside development")
		}
	}

	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("BLUESTEM_CACHE_TTL must be positive, got %d", cfg.CacheTTL)
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
