// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package bootstrap

import "sync"

// Recording handle implementations. They capture every vendor call in memory
// and are used by adapter tests and by local development shells that want to
// inspect what would have been sent to a vendor.

// GtagCall is one recorded gtag invocation.
type GtagCall struct {
	Command string
	Args    []any
}

// RecordingGtag is a GtagHandle that records calls.
type RecordingGtag struct {
	mu    sync.Mutex
	calls []GtagCall
}

// Gtag records the command and its arguments.
func (r *RecordingGtag) Gtag(command string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, GtagCall{Command: command, Args: args})
}

// Calls returns a copy of the recorded calls.
func (r *RecordingGtag) Calls() []GtagCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GtagCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// PostHogCall is one recorded posthog invocation.
type PostHogCall struct {
	Method     string
	DistinctID string
	Event      string
	Properties map[string]any
}

// RecordingPostHog is a PostHogHandle that records calls and serves static
// feature flags.
type RecordingPostHog struct {
	mu    sync.Mutex
	calls []PostHogCall

	// Flags serves IsFeatureEnabled/GetFeatureFlag lookups.
	Flags map[string]any
}

// Init records the init call.
func (r *RecordingPostHog) Init(apiKey string, options map[string]any) {
	r.record(PostHogCall{Method: "init", DistinctID: apiKey, Properties: options})
}

// Identify records the identify call.
func (r *RecordingPostHog) Identify(distinctID string, properties map[string]any) {
	r.record(PostHogCall{Method: "identify", DistinctID: distinctID, Properties: properties})
}

// Capture records the capture call.
func (r *RecordingPostHog) Capture(event string, properties map[string]any) {
	r.record(PostHogCall{Method: "capture", Event: event, Properties: properties})
}

// Reset records the reset call.
func (r *RecordingPostHog) Reset() {
	r.record(PostHogCall{Method: "reset"})
}

// IsFeatureEnabled reports whether the named flag is truthy in Flags.
func (r *RecordingPostHog) IsFeatureEnabled(flag string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.Flags[flag]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// GetFeatureFlag returns the flag value from Flags.
func (r *RecordingPostHog) GetFeatureFlag(flag string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Flags[flag]
}

// OnFeatureFlags invokes the callback immediately; recorded flags are static.
func (r *RecordingPostHog) OnFeatureFlags(callback func()) {
	if callback != nil {
		callback()
	}
}

func (r *RecordingPostHog) record(c PostHogCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Calls returns a copy of the recorded calls.
func (r *RecordingPostHog) Calls() []PostHogCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PostHogCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// PlausibleCall is one recorded plausible trigger.
type PlausibleCall struct {
	Event string
	Opts  PlausibleOptions
}

// RecordingPlausible is a PlausibleHandle that records triggers.
// When FireCallback is true it invokes the trigger callback synchronously,
// imitating a loaded plausible.js; when false it never fires the callback,
// imitating the pre-load queueing stub.
type RecordingPlausible struct {
	FireCallback bool

	mu    sync.Mutex
	calls []PlausibleCall
}

// Trigger records the event and optionally fires the callback.
func (r *RecordingPlausible) Trigger(event string, opts PlausibleOptions) {
	r.mu.Lock()
	r.calls = append(r.calls, PlausibleCall{Event: event, Opts: opts})
	fire := r.FireCallback
	r.mu.Unlock()

	if fire && opts.Callback != nil {
		opts.Callback()
	}
}

// Calls returns a copy of the recorded triggers.
func (r *RecordingPlausible) Calls() []PlausibleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlausibleCall, len(r.calls))
	copy(out, r.calls)
	return out
}
