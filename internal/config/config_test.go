// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package config

import (
	"testing"
	"time"
)

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env      string
		expected string
	}{
		{"GA4_MEASUREMENT_ID", "ga4.measurement_id"},
		{"GA4_API_SECRET", "ga4.api_secret"},
		{"POSTHOG_API_KEY", "posthog.api_key"},
		{"POSTHOG_HOST", "posthog.host"},
		{"POSTHOG_SESSION_RECORDING", "posthog.session_recording"},
		{"PLAUSIBLE_DOMAIN", "plausible.domain"},
		{"PLAUSIBLE_HOST", "plausible.host"},
		{"CONSOLE_PREFIX", "console.prefix"},
		{"ANALYTICS_PROVIDER", "analytics.provider"},
		{"ENVIRONMENT", "server.environment"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
		{"GA4_", ""},
		{"SOMETHING_ELSE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.PostHog.Host != "https://app.posthog.com" {
		t.Errorf("PostHog.Host = %q, want PostHog cloud default", cfg.PostHog.Host)
	}
	if cfg.Plausible.Host != "https://plausible.io" {
		t.Errorf("Plausible.Host = %q, want Plausible cloud default", cfg.Plausible.Host)
	}
	if cfg.Console.Prefix != "[Analytics]" {
		t.Errorf("Console.Prefix = %q, want [Analytics]", cfg.Console.Prefix)
	}
	if !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfigured(t *testing.T) {
	cfg := defaultConfig()

	if cfg.GA4.Configured() || cfg.PostHog.Configured() || cfg.Plausible.Configured() {
		t.Error("no provider should be configured by default")
	}

	cfg.GA4.MeasurementID = "G-TEST123"
	if !cfg.GA4.Configured() {
		t.Error("GA4 should be configured with a measurement ID")
	}

	// API secret alone is not enough for GA4
	cfg.GA4.MeasurementID = ""
	cfg.GA4.APISecret = "secret"
	if cfg.GA4.Configured() {
		t.Error("GA4 API secret without measurement ID should not count as configured")
	}

	cfg.PostHog.APIKey = "phc_test"
	if !cfg.PostHog.Configured() {
		t.Error("PostHog should be configured with an API key")
	}

	cfg.Plausible.Domain = "app.example.com"
	if !cfg.Plausible.Configured() {
		t.Error("Plausible should be configured with a domain")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"production environment", func(c *Config) { c.Server.Environment = "production" }, false},
		{"invalid environment", func(c *Config) { c.Server.Environment = "staging" }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, true},
		{"zero rate limit", func(c *Config) { c.Server.RateLimitReqs = 0 }, true},
		{"zero rate limit window", func(c *Config) { c.Server.RateLimitWindow = 0 }, true},
		{
			"rate limit disabled skips limits",
			func(c *Config) {
				c.Server.RateLimitDisabled = true
				c.Server.RateLimitReqs = 0
				c.Server.RateLimitWindow = 0
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GA4_MEASUREMENT_ID", "G-ENV42")
	t.Setenv("GA4_API_SECRET", "env-secret")
	t.Setenv("POSTHOG_HOST", "https://ph.example.com")
	t.Setenv("ANALYTICS_PROVIDER", "ga4")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GA4.MeasurementID != "G-ENV42" {
		t.Errorf("GA4.MeasurementID = %q, want G-ENV42", cfg.GA4.MeasurementID)
	}
	if cfg.GA4.APISecret != "env-secret" {
		t.Errorf("GA4.APISecret = %q, want env-secret", cfg.GA4.APISecret)
	}
	if cfg.PostHog.Host != "https://ph.example.com" {
		t.Errorf("PostHog.Host = %q, want override", cfg.PostHog.Host)
	}
	if cfg.Analytics.Provider != "ga4" {
		t.Errorf("Analytics.Provider = %q, want ga4", cfg.Analytics.Provider)
	}
	if cfg.IsDevelopment() {
		t.Error("ENVIRONMENT=production should disable development mode")
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.Server.CORSOrigins)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %v, want 30s", cfg.Server.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}
