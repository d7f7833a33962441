// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import "fmt"

// ProviderKind identifies an analytics backend implementation.
type ProviderKind string

// The closed set of supported providers.
const (
	ProviderGA4       ProviderKind = "ga4"
	ProviderPostHog   ProviderKind = "posthog"
	ProviderPlausible ProviderKind = "plausible"
	ProviderConsole   ProviderKind = "console"
)

// ParseProviderKind converts a string to a ProviderKind.
// Returns false for values outside the closed set.
func ParseProviderKind(s string) (ProviderKind, bool) {
	switch ProviderKind(s) {
	case ProviderGA4, ProviderPostHog, ProviderPlausible, ProviderConsole:
		return ProviderKind(s), true
	default:
		return "", false
	}
}

// TrackResult is the uniform value returned by every tracking operation.
// Tracking calls never panic across the Facade boundary; failures are
// reported through this type instead.
type TrackResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK returns a successful TrackResult.
func OK() TrackResult {
	return TrackResult{Success: true}
}

// Fail returns a failed TrackResult with the given message.
func Fail(msg string) TrackResult {
	return TrackResult{Success: false, Error: msg}
}

// Failf returns a failed TrackResult with a formatted message.
func Failf(format string, args ...any) TrackResult {
	return TrackResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// FailErr returns a failed TrackResult carrying the stringified error.
func FailErr(err error) TrackResult {
	if err == nil {
		return OK()
	}
	return TrackResult{Success: false, Error: err.Error()}
}

// Traits describes a user for identification calls. Known fields are typed;
// Extra carries arbitrary additional keys through to vendors that accept them.
type Traits struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Plan      string `json:"plan,omitempty"`
	Company   string `json:"company,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Properties describes a tracked event. Known fields are typed; Extra carries
// arbitrary additional keys. Value and Revenue are pointers so that zero can
// be distinguished from unset.
type Properties struct {
	Category string   `json:"category,omitempty"`
	Label    string   `json:"label,omitempty"`
	Value    *float64 `json:"value,omitempty"`
	Revenue  *float64 `json:"revenue,omitempty"`
	Currency string   `json:"currency,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// PageProperties describes a page view. Unset fields are defaulted from the
// platform page source where one is available.
type PageProperties struct {
	Name     string `json:"name,omitempty"`
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Referrer string `json:"referrer,omitempty"`
	Title    string `json:"title,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Features describes the capabilities of a provider adapter.
type Features struct {
	Identify         bool `json:"identify"`
	EventProperties  bool `json:"event_properties"`
	Revenue          bool `json:"revenue"`
	PageTracking     bool `json:"page_tracking"`
	FeatureFlags     bool `json:"feature_flags"`
	SessionRecording bool `json:"session_recording"`
}

// Float64 returns a pointer to v, for use with the optional numeric fields
// on Properties.
func Float64(v float64) *float64 {
	return &v
}
