// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tracklight/tracklight/internal/bootstrap"
	"github.com/tracklight/tracklight/internal/config"
	"github.com/tracklight/tracklight/internal/metrics"
)

// PostHog is the PostHog adapter. Beyond the common Provider contract it
// exposes the vendor's feature flag surface (IsFeatureEnabled,
// GetFeatureFlag, OnFeatureFlags); those methods are additive and not
// required by the Facade.
type PostHog struct {
	cfg     config.PostHogConfig
	lookup  func() (bootstrap.PostHogHandle, bool)
	timeout time.Duration

	mu     sync.RWMutex
	handle bootstrap.PostHogHandle
	ready  bool
}

// PostHogOption customizes the PostHog adapter.
type PostHogOption func(*PostHog)

// WithPostHogTimeout overrides the handle wait timeout (default 5s).
func WithPostHogTimeout(d time.Duration) PostHogOption {
	return func(p *PostHog) { p.timeout = d }
}

// NewPostHog creates the PostHog adapter.
func NewPostHog(cfg config.PostHogConfig, lookup func() (bootstrap.PostHogHandle, bool), opts ...PostHogOption) *PostHog {
	p := &PostHog{
		cfg:     cfg,
		lookup:  lookup,
		timeout: defaultHandleTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider kind.
func (p *PostHog) Name() ProviderKind {
	return ProviderPostHog
}

// Init waits for the posthog handle and initializes the vendor library with
// the configured key, host, and recording flags. Idempotent. The bounded
// wait runs outside the lock so Ready and the tracking methods answer
// promptly while init is in flight.
func (p *PostHog) Init(ctx context.Context) error {
	if p.Ready() {
		return nil
	}

	start := time.Now()
	handle, err := waitForHandle(ctx, p.timeout, p.lookup)
	metrics.RecordAdapterInit(string(ProviderPostHog), time.Since(start), initFailureReason(err))
	if err != nil {
		if ErrHandleTimeout(err) {
			return fmt.Errorf("posthog: library not available after %s: %w", p.timeout, err)
		}
		return fmt.Errorf("posthog: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}

	handle.Init(p.cfg.APIKey, map[string]any{
		"api_host":                  p.cfg.Host,
		"autocapture":               p.cfg.Autocapture,
		"disable_session_recording": !p.cfg.SessionRecording,
		"capture_pageview":          false, // Page views are sent explicitly through Page()
	})

	p.handle = handle
	p.ready = true
	return nil
}

// Ready reports whether Init has completed successfully.
func (p *PostHog) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Features reports PostHog capabilities.
func (p *PostHog) Features() Features {
	return Features{
		Identify:         true,
		EventProperties:  true,
		Revenue:          true,
		PageTracking:     true,
		FeatureFlags:     true,
		SessionRecording: p.cfg.SessionRecording,
	}
}

func (p *PostHog) current() (bootstrap.PostHogHandle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle, p.ready
}

// Identify maps the named traits to vendor keys and passes every Extra key
// through verbatim.
func (p *PostHog) Identify(_ context.Context, userID string, traits *Traits) TrackResult {
	handle, ok := p.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderPostHog), "identify", false)
		return Fail("PostHog not initialized")
	}

	handle.Identify(userID, flattenTraits(traits))
	metrics.RecordAdapterCall(string(ProviderPostHog), "identify", true)
	return OK()
}

// Track captures a named event. Revenue and currency map to the vendor's
// $-prefixed keys.
func (p *PostHog) Track(_ context.Context, event string, props *Properties) TrackResult {
	handle, ok := p.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderPostHog), "track", false)
		return Fail("PostHog not initialized")
	}

	out := make(map[string]any)
	if props != nil {
		if props.Category != "" {
			out["category"] = props.Category
		}
		if props.Label != "" {
			out["label"] = props.Label
		}
		if props.Value != nil {
			out["value"] = *props.Value
		}
		if props.Revenue != nil {
			out["$revenue"] = *props.Revenue
		}
		if props.Currency != "" {
			out["$currency"] = props.Currency
		}
		for k, v := range props.Extra {
			out[k] = v
		}
	}

	handle.Capture(event, out)
	metrics.RecordAdapterCall(string(ProviderPostHog), "track", true)
	return OK()
}

// Page captures the vendor's $pageview event.
func (p *PostHog) Page(_ context.Context, name string, props *PageProperties) TrackResult {
	handle, ok := p.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderPostHog), "page", false)
		return Fail("PostHog not initialized")
	}

	out := make(map[string]any)
	if name != "" {
		out["page_name"] = name
	}
	if props != nil {
		if props.URL != "" {
			out["$current_url"] = props.URL
		}
		if props.Path != "" {
			out["$pathname"] = props.Path
		}
		if props.Referrer != "" {
			out["$referrer"] = props.Referrer
		}
		if props.Title != "" {
			out["title"] = props.Title
		}
		for k, v := range props.Extra {
			out[k] = v
		}
	}

	handle.Capture("$pageview", out)
	metrics.RecordAdapterCall(string(ProviderPostHog), "page", true)
	return OK()
}

// Reset clears the vendor-side identity and device id.
func (p *PostHog) Reset(_ context.Context) TrackResult {
	handle, ok := p.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderPostHog), "reset", false)
		return Fail("PostHog not initialized")
	}

	handle.Reset()
	metrics.RecordAdapterCall(string(ProviderPostHog), "reset", true)
	return OK()
}

// IsFeatureEnabled reports whether a vendor feature flag is enabled.
// Returns false while the adapter is not ready.
func (p *PostHog) IsFeatureEnabled(flag string) bool {
	handle, ok := p.current()
	if !ok {
		return false
	}
	return handle.IsFeatureEnabled(flag)
}

// GetFeatureFlag returns a vendor feature flag value, or nil while the
// adapter is not ready.
func (p *PostHog) GetFeatureFlag(flag string) any {
	handle, ok := p.current()
	if !ok {
		return nil
	}
	return handle.GetFeatureFlag(flag)
}

// OnFeatureFlags registers a callback for flag availability. A no-op while
// the adapter is not ready.
func (p *PostHog) OnFeatureFlags(callback func()) {
	handle, ok := p.current()
	if !ok {
		return
	}
	handle.OnFeatureFlags(callback)
}
