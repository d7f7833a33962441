// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tracklight/config.yaml",
	"/etc/tracklight/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Analytics: AnalyticsConfig{
			Provider: "", // Empty = auto-detect from credentials
		},
		GA4: GA4Config{
			MeasurementID: "",
			APISecret:     "",
		},
		PostHog: PostHogConfig{
			APIKey:           "",
			Host:             "https://app.posthog.com",
			SessionRecording: false,
			Autocapture:      false,
		},
		Plausible: PlausibleConfig{
			Domain: "",
			Host:   "https://plausible.io",
		},
		Console: ConsoleConfig{
			Prefix: "[Analytics]",
		},
		Server: ServerConfig{
			Port:            8643,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			Environment:     "development", // Set ENVIRONMENT=production for production checks
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// GA4_MEASUREMENT_ID -> ga4.measurement_id
	// POSTHOG_API_KEY -> posthog.api_key
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envAliases maps environment variable names that do not follow the
// SECTION_FIELD convention onto their koanf paths.
var envAliases = map[string]string{
	"environment":         "server.environment",
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"rate_limit_disabled": "server.rate_limit_disabled",
	"log_level":           "logging.level",
	"log_format":          "logging.format",
	"log_caller":          "logging.caller",
	"analytics_provider":  "analytics.provider",
}

// envSections are the SECTION_ prefixes recognized by envTransformFunc.
var envSections = []string{"ga4", "posthog", "plausible", "console", "analytics", "server", "logging"}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unrecognized variables return "" and are skipped, so unrelated process
// environment never leaks into the configuration.
//
// Examples:
//   - GA4_MEASUREMENT_ID -> ga4.measurement_id
//   - POSTHOG_API_KEY -> posthog.api_key
//   - PLAUSIBLE_DOMAIN -> plausible.domain
//   - ANALYTICS_PROVIDER -> analytics.provider
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if path, ok := envAliases[key]; ok {
		return path
	}

	for _, section := range envSections {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return section + "." + key[len(prefix):]
		}
	}

	return ""
}
