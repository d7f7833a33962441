// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"testing"

	"github.com/tracklight/tracklight/internal/config"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantKind ProviderKind
		wantOK   bool
	}{
		{
			name: "explicit override wins over detected credentials",
			cfg: config.Config{
				Analytics: config.AnalyticsConfig{Provider: "ga4"},
				GA4:       config.GA4Config{MeasurementID: "G-TEST"},
				PostHog:   config.PostHogConfig{APIKey: "phc_test"},
			},
			wantKind: ProviderGA4,
			wantOK:   true,
		},
		{
			name: "override console in production",
			cfg: config.Config{
				Analytics: config.AnalyticsConfig{Provider: "console"},
				Server:    config.ServerConfig{Environment: "production"},
			},
			wantKind: ProviderConsole,
			wantOK:   true,
		},
		{
			name: "unrecognized override falls through to detection",
			cfg: config.Config{
				Analytics: config.AnalyticsConfig{Provider: "mixpanel"},
				Plausible: config.PlausibleConfig{Domain: "app.example.com"},
			},
			wantKind: ProviderPlausible,
			wantOK:   true,
		},
		{
			name: "posthog detected before ga4",
			cfg: config.Config{
				GA4:     config.GA4Config{MeasurementID: "G-TEST"},
				PostHog: config.PostHogConfig{APIKey: "phc_test"},
			},
			wantKind: ProviderPostHog,
			wantOK:   true,
		},
		{
			name: "ga4 detected before plausible",
			cfg: config.Config{
				GA4:       config.GA4Config{MeasurementID: "G-TEST"},
				Plausible: config.PlausibleConfig{Domain: "app.example.com"},
			},
			wantKind: ProviderGA4,
			wantOK:   true,
		},
		{
			name:     "plausible alone",
			cfg:      config.Config{Plausible: config.PlausibleConfig{Domain: "app.example.com"}},
			wantKind: ProviderPlausible,
			wantOK:   true,
		},
		{
			name:     "no credentials in development falls back to console",
			cfg:      config.Config{Server: config.ServerConfig{Environment: "development"}},
			wantKind: ProviderConsole,
			wantOK:   true,
		},
		{
			name:   "no credentials in production disables analytics",
			cfg:    config.Config{Server: config.ServerConfig{Environment: "production"}},
			wantOK: false,
		},
		{
			name: "unrecognized override with no credentials in production disables",
			cfg: config.Config{
				Analytics: config.AnalyticsConfig{Provider: "amplitude"},
				Server:    config.ServerConfig{Environment: "production"},
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Resolve(&tt.cfg)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && kind != tt.wantKind {
				t.Errorf("Resolve() = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}
