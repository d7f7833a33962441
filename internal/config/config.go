// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package config holds all application configuration loaded from environment
// variables and optional YAML config files via Koanf v2.
//
// Configuration Loading Order:
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Providers:
//     - GA4: Google Analytics 4 (measurement ID + server-only API secret)
//     - PostHog: Product analytics (API key, host, recording flags)
//     - Plausible: Privacy-focused analytics (domain, host)
//     - Console: Local logging provider for development
//
//  2. Resolution:
//     - Analytics: Explicit provider override and related knobs
//
//  3. Infrastructure:
//     - Server: Relay HTTP server (port, host, timeouts, CORS, rate limits)
//     - Logging: Log levels and output formats
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration object.
type Config struct {
	Analytics AnalyticsConfig `koanf:"analytics"`
	GA4       GA4Config       `koanf:"ga4"`       // Optional: Google Analytics 4
	PostHog   PostHogConfig   `koanf:"posthog"`   // Optional: PostHog
	Plausible PlausibleConfig `koanf:"plausible"` // Optional: Plausible
	Console   ConsoleConfig   `koanf:"console"`   // Development fallback provider
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// AnalyticsConfig controls provider resolution.
type AnalyticsConfig struct {
	// Provider is an explicit override: ga4, posthog, plausible, or console.
	// An unrecognized value is ignored with a warning and resolution falls
	// through to credential auto-detection.
	Provider string `koanf:"provider"`
}

// GA4Config configures the Google Analytics 4 provider.
// MeasurementID is the only required credential for the browser path.
// APISecret is server-only and required for the Measurement Protocol path.
type GA4Config struct {
	MeasurementID string `koanf:"measurement_id"`
	APISecret     string `koanf:"api_secret"`
}

// Configured reports whether the minimum GA4 credentials are present.
func (c *GA4Config) Configured() bool {
	return c.MeasurementID != ""
}

// PostHogConfig configures the PostHog provider.
type PostHogConfig struct {
	APIKey           string `koanf:"api_key"`
	Host             string `koanf:"host"`
	SessionRecording bool   `koanf:"session_recording"`
	Autocapture      bool   `koanf:"autocapture"`
}

// Configured reports whether the minimum PostHog credentials are present.
func (c *PostHogConfig) Configured() bool {
	return c.APIKey != ""
}

// PlausibleConfig configures the Plausible provider.
type PlausibleConfig struct {
	Domain   string `koanf:"domain"`
	Host     string `koanf:"host"`
}

// Configured reports whether the minimum Plausible credentials are present.
func (c *PlausibleConfig) Configured() bool {
	return c.Domain != ""
}

// ConsoleConfig configures the console (development) provider.
type ConsoleConfig struct {
	// Prefix is prepended to every console provider log line.
	Prefix string `koanf:"prefix"`
}

// ServerConfig configures the relay HTTP server.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production". Development enables the
	// console provider fallback when no credentials are configured.
	Environment string `koanf:"environment"`

	CORSOrigins []string `koanf:"cors_origins"`

	// Ingest rate limiting (per client IP).
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Validate checks the configuration for malformed values.
// Missing provider credentials are NOT an error here: an unconfigured
// provider simply means analytics resolves to disabled.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("invalid environment %q (must be development or production)", c.Server.Environment)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %v", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitReqs <= 0 {
			return fmt.Errorf("rate limit requests must be positive, got %d", c.Server.RateLimitReqs)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("rate limit window must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	return nil
}
