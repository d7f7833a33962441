// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tracklight/tracklight/internal/config"
	"github.com/tracklight/tracklight/internal/metrics"
)

// Console is the development provider. It has no external dependency: every
// call is logged with method-specific fields and always succeeds. A local
// userID/trait cache is kept purely so log lines carry readable identity
// context; it is not externally observable.
type Console struct {
	prefix string
	logger zerolog.Logger

	mu     sync.Mutex
	ready  bool
	userID string
	traits map[string]any
}

// NewConsole creates the console provider.
func NewConsole(cfg config.ConsoleConfig, logger zerolog.Logger) *Console {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "[Analytics]"
	}
	return &Console{
		prefix: prefix,
		logger: logger.With().Str("component", "analytics-console").Logger(),
		traits: make(map[string]any),
	}
}

// Name returns the provider kind.
func (c *Console) Name() ProviderKind {
	return ProviderConsole
}

// Init marks the provider ready. Synchronous, never fails.
func (c *Console) Init(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	c.ready = true
	c.logger.Debug().Str("prefix", c.prefix).Msg("Console analytics initialized")
	return nil
}

// Ready reports whether Init has completed.
func (c *Console) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Features reports full capability; everything is "supported" by logging it.
func (c *Console) Features() Features {
	return Features{
		Identify:        true,
		EventProperties: true,
		Revenue:         true,
		PageTracking:    true,
	}
}

// Identify caches the user for log readability and logs the call.
func (c *Console) Identify(_ context.Context, userID string, traits *Traits) TrackResult {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return Fail("console provider not initialized")
	}
	c.userID = userID
	for k, v := range flattenTraits(traits) {
		c.traits[k] = v
	}
	cached := len(c.traits)
	c.mu.Unlock()

	c.logger.Info().
		Str("prefix", c.prefix).
		Str("user_id", userID).
		Int("traits", cached).
		Msg("identify")
	metrics.RecordAdapterCall(string(ProviderConsole), "identify", true)
	return OK()
}

// Track logs the event with its property bag.
func (c *Console) Track(_ context.Context, event string, props *Properties) TrackResult {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return Fail("console provider not initialized")
	}
	userID := c.userID
	c.mu.Unlock()

	c.logger.Info().
		Str("prefix", c.prefix).
		Str("event", event).
		Str("user_id", userID).
		Interface("properties", flattenProperties(props)).
		Msg("track")
	metrics.RecordAdapterCall(string(ProviderConsole), "track", true)
	return OK()
}

// Page logs the page view.
func (c *Console) Page(_ context.Context, name string, props *PageProperties) TrackResult {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return Fail("console provider not initialized")
	}
	userID := c.userID
	c.mu.Unlock()

	evt := c.logger.Info().
		Str("prefix", c.prefix).
		Str("page", name).
		Str("user_id", userID)
	if props != nil {
		evt = evt.Str("url", props.URL).Str("path", props.Path)
	}
	evt.Msg("page")
	metrics.RecordAdapterCall(string(ProviderConsole), "page", true)
	return OK()
}

// Reset clears the local identity cache.
func (c *Console) Reset(_ context.Context) TrackResult {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return Fail("console provider not initialized")
	}
	c.userID = ""
	c.traits = make(map[string]any)
	c.mu.Unlock()

	c.logger.Info().Str("prefix", c.prefix).Msg("reset")
	metrics.RecordAdapterCall(string(ProviderConsole), "reset", true)
	return OK()
}

// flattenTraits converts Traits into a flat map, typed fields first, Extra on
// top. Nil traits yield an empty map.
func flattenTraits(t *Traits) map[string]any {
	out := make(map[string]any)
	if t == nil {
		return out
	}
	if t.Email != "" {
		out["email"] = t.Email
	}
	if t.Name != "" {
		out["name"] = t.Name
	}
	if t.FirstName != "" {
		out["first_name"] = t.FirstName
	}
	if t.LastName != "" {
		out["last_name"] = t.LastName
	}
	if t.Plan != "" {
		out["plan"] = t.Plan
	}
	if t.Company != "" {
		out["company"] = t.Company
	}
	if t.CreatedAt != "" {
		out["created_at"] = t.CreatedAt
	}
	for k, v := range t.Extra {
		out[k] = v
	}
	return out
}

// flattenProperties converts Properties into a flat map, typed fields first,
// Extra on top. Nil properties yield an empty map.
func flattenProperties(p *Properties) map[string]any {
	out := make(map[string]any)
	if p == nil {
		return out
	}
	if p.Category != "" {
		out["category"] = p.Category
	}
	if p.Label != "" {
		out["label"] = p.Label
	}
	if p.Value != nil {
		out["value"] = *p.Value
	}
	if p.Revenue != nil {
		out["revenue"] = *p.Revenue
	}
	if p.Currency != "" {
		out["currency"] = p.Currency
	}
	for k, v := range p.Extra {
		out[k] = v
	}
	return out
}
