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

// ga4TraitKeys is the fixed allow-list of trait keys GA4 accepts as user
// properties. Traits outside this list are dropped, not forwarded.
var ga4TraitKeys = []string{"email", "name", "plan", "company"}

// GA4 is the Google Analytics 4 adapter. It drives the gtag handle published
// by the platform bootstrap; Init waits, bounded, for that handle to appear.
type GA4 struct {
	cfg     config.GA4Config
	lookup  func() (bootstrap.GtagHandle, bool)
	page    bootstrap.PageSource
	timeout time.Duration

	mu     sync.RWMutex
	handle bootstrap.GtagHandle
	ready  bool
}

// GA4Option customizes the GA4 adapter.
type GA4Option func(*GA4)

// WithGA4Timeout overrides the handle wait timeout (default 5s).
func WithGA4Timeout(d time.Duration) GA4Option {
	return func(g *GA4) { g.timeout = d }
}

// NewGA4 creates the GA4 adapter. lookup yields the gtag handle once the
// platform has loaded the vendor script; page supplies page-view defaults
// and may be nil.
func NewGA4(cfg config.GA4Config, lookup func() (bootstrap.GtagHandle, bool), page bootstrap.PageSource, opts ...GA4Option) *GA4 {
	g := &GA4{
		cfg:     cfg,
		lookup:  lookup,
		page:    page,
		timeout: defaultHandleTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the provider kind.
func (g *GA4) Name() ProviderKind {
	return ProviderGA4
}

// Init waits for the gtag handle and configures the measurement stream.
// Idempotent; fails with a timeout error when the handle never appears.
// The bounded wait runs outside the lock: Ready and the tracking methods
// answer promptly (not-initialized) while init is in flight.
func (g *GA4) Init(ctx context.Context) error {
	if g.Ready() {
		return nil
	}

	start := time.Now()
	handle, err := waitForHandle(ctx, g.timeout, g.lookup)
	metrics.RecordAdapterInit(string(ProviderGA4), time.Since(start), initFailureReason(err))
	if err != nil {
		if ErrHandleTimeout(err) {
			return fmt.Errorf("ga4: gtag not available after %s: %w", g.timeout, err)
		}
		return fmt.Errorf("ga4: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready {
		return nil
	}

	// Page views are sent explicitly through Page(), not by gtag itself.
	handle.Gtag("config", g.cfg.MeasurementID, map[string]any{
		"send_page_view": false,
	})

	g.handle = handle
	g.ready = true
	return nil
}

// Ready reports whether Init has completed successfully.
func (g *GA4) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ready
}

// Features reports GA4 capabilities.
func (g *GA4) Features() Features {
	return Features{
		Identify:        true,
		EventProperties: true,
		Revenue:         true,
		PageTracking:    true,
	}
}

// current returns the handle when ready.
func (g *GA4) current() (bootstrap.GtagHandle, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handle, g.ready
}

// Identify sets the user id and the allow-listed traits as user properties.
// Traits outside ga4TraitKeys are dropped.
func (g *GA4) Identify(_ context.Context, userID string, traits *Traits) TrackResult {
	handle, ok := g.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderGA4), "identify", false)
		return Fail("GA4 not initialized")
	}

	handle.Gtag("config", g.cfg.MeasurementID, map[string]any{
		"user_id": userID,
	})

	flat := flattenTraits(traits)
	userProps := make(map[string]any)
	for _, key := range ga4TraitKeys {
		if v, present := flat[key]; present {
			userProps[key] = v
		}
	}
	if len(userProps) > 0 {
		handle.Gtag("set", "user_properties", userProps)
	}

	metrics.RecordAdapterCall(string(ProviderGA4), "identify", true)
	return OK()
}

// Track sends a named event. Category/label/value map to GA4 parameter
// names; revenue overrides value and defaults the currency to USD.
func (g *GA4) Track(_ context.Context, event string, props *Properties) TrackResult {
	handle, ok := g.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderGA4), "track", false)
		return Fail("GA4 not initialized")
	}

	params := make(map[string]any)
	if props != nil {
		if props.Category != "" {
			params["event_category"] = props.Category
		}
		if props.Label != "" {
			params["event_label"] = props.Label
		}
		if props.Value != nil {
			params["value"] = *props.Value
		}
		if props.Revenue != nil {
			params["value"] = *props.Revenue
			currency := props.Currency
			if currency == "" {
				currency = "USD"
			}
			params["currency"] = currency
		} else if props.Currency != "" {
			params["currency"] = props.Currency
		}
		for k, v := range props.Extra {
			params[k] = v
		}
	}

	handle.Gtag("event", event, params)
	metrics.RecordAdapterCall(string(ProviderGA4), "track", true)
	return OK()
}

// Page sends a page_view event, defaulting unset fields from the platform
// page source when one is available.
func (g *GA4) Page(_ context.Context, name string, props *PageProperties) TrackResult {
	handle, ok := g.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderGA4), "page", false)
		return Fail("GA4 not initialized")
	}

	var info bootstrap.PageInfo
	if g.page != nil {
		info = g.page.PageInfo()
	}

	params := map[string]any{}
	title := name
	location := info.URL
	path := info.Path
	referrer := info.Referrer
	if props != nil {
		if props.Title != "" {
			title = props.Title
		}
		if props.URL != "" {
			location = props.URL
		}
		if props.Path != "" {
			path = props.Path
		}
		if props.Referrer != "" {
			referrer = props.Referrer
		}
		for k, v := range props.Extra {
			params[k] = v
		}
	}
	if title == "" {
		title = info.Title
	}

	params["page_title"] = title
	params["page_location"] = location
	params["page_path"] = path
	params["page_referrer"] = referrer

	handle.Gtag("event", "page_view", params)
	metrics.RecordAdapterCall(string(ProviderGA4), "page", true)
	return OK()
}

// Reset clears the user id and nulls the allow-listed trait keys. This is
// not a full vendor-side reset; GA4 has none.
func (g *GA4) Reset(_ context.Context) TrackResult {
	handle, ok := g.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderGA4), "reset", false)
		return Fail("GA4 not initialized")
	}

	handle.Gtag("config", g.cfg.MeasurementID, map[string]any{
		"user_id": nil,
	})
	cleared := make(map[string]any, len(ga4TraitKeys))
	for _, key := range ga4TraitKeys {
		cleared[key] = nil
	}
	handle.Gtag("set", "user_properties", cleared)

	metrics.RecordAdapterCall(string(ProviderGA4), "reset", true)
	return OK()
}
