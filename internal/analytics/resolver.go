// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"github.com/tracklight/tracklight/internal/config"
	"github.com/tracklight/tracklight/internal/logging"
)

// detectionOrder is the credential auto-detection priority: PostHog (most
// capable), then GA4 (most common), then Plausible (privacy alternative).
var detectionOrder = []ProviderKind{ProviderPostHog, ProviderGA4, ProviderPlausible}

// Resolve determines which provider is active. It is a pure function of the
// loaded configuration; callers cache the result (the Registry does).
//
// Precedence, first match wins:
//  1. Explicit override (analytics.provider). An unrecognized value is
//     ignored with a warning, not rejected, and resolution falls through.
//  2. Credential auto-detection in detectionOrder.
//  3. Console fallback in development mode.
//  4. Disabled (ok=false).
func Resolve(cfg *config.Config) (ProviderKind, bool) {
	if override := cfg.Analytics.Provider; override != "" {
		if kind, ok := ParseProviderKind(override); ok {
			return kind, true
		}
		logging.Warn().
			Str("provider", override).
			Msg("Ignoring unrecognized analytics provider override")
	}

	for _, kind := range detectionOrder {
		if kindConfigured(cfg, kind) {
			return kind, true
		}
	}

	if cfg.IsDevelopment() {
		return ProviderConsole, true
	}

	return "", false
}

// kindConfigured reports whether the kind's required credentials are present.
func kindConfigured(cfg *config.Config, kind ProviderKind) bool {
	switch kind {
	case ProviderGA4:
		return cfg.GA4.Configured()
	case ProviderPostHog:
		return cfg.PostHog.Configured()
	case ProviderPlausible:
		return cfg.Plausible.Configured()
	case ProviderConsole:
		return true
	default:
		return false
	}
}
