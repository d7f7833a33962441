// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tracklight/tracklight/internal/bootstrap"
	"github.com/tracklight/tracklight/internal/config"
)

// Registry owns the single live provider instance. It is an explicit,
// constructor-injected object rather than a package-level singleton, so
// tests and independent sessions can hold isolated instances.
//
// Lifecycle of the instance: unconstructed -> constructed-not-ready ->
// ready. Back to unconstructed only via Reset (e.g. on consent revocation).
// Construction is lazy and idempotent; construction failures are logged
// once and surfaced as nil, never as a panic.
type Registry struct {
	cfg    *config.Config
	hub    *bootstrap.Hub
	logger zerolog.Logger

	mu        sync.Mutex
	client    Provider
	attempted bool // construction attempted since last Reset
	warned    bool
	init      *initCall
}

// initCall memoizes one in-flight (or completed) adapter initialization so
// concurrent Init callers collapse onto it.
type initCall struct {
	done chan struct{}
	err  error
}

// NewRegistry creates a Registry. hub may be nil when only the console
// provider can resolve.
func NewRegistry(cfg *config.Config, hub *bootstrap.Hub, logger zerolog.Logger) *Registry {
	return &Registry{
		cfg:    cfg,
		hub:    hub,
		logger: logger.With().Str("component", "analytics-registry").Logger(),
	}
}

// Client returns the cached provider instance, constructing it on first use.
// Returns nil when no provider resolves or the resolved provider's
// configuration is incomplete; the condition is logged at most once until
// the next Reset.
func (r *Registry) Client() Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientLocked()
}

func (r *Registry) clientLocked() Provider {
	if r.client != nil {
		return r.client
	}
	if r.attempted {
		// A previous construction failed; stay disabled until Reset.
		return nil
	}
	r.attempted = true

	kind, ok := Resolve(r.cfg)
	if !ok {
		r.warnOnce("No analytics provider configured, analytics disabled")
		return nil
	}

	client, err := r.construct(kind)
	if err != nil {
		r.logger.Error().Err(err).Str("provider", string(kind)).Msg("Failed to construct analytics provider")
		return nil
	}

	r.logger.Debug().Str("provider", string(kind)).Msg("Analytics provider constructed")
	r.client = client
	return r.client
}

// Live returns the cached instance without constructing one. Used where a
// read must not trigger lazy construction (e.g. consent revocation).
func (r *Registry) Live() Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client
}

// construct builds the adapter for the resolved kind. A kind resolved via
// explicit override may still be missing its credentials; that is the one
// construction failure mode.
func (r *Registry) construct(kind ProviderKind) (Provider, error) {
	switch kind {
	case ProviderConsole:
		return NewConsole(r.cfg.Console, r.logger), nil
	case ProviderGA4:
		if !r.cfg.GA4.Configured() {
			return nil, errIncompleteConfig(kind, "measurement_id")
		}
		var page bootstrap.PageSource
		if r.hub != nil {
			page, _ = r.hub.PageSource()
		}
		return NewGA4(r.cfg.GA4, r.gtagLookup(), page), nil
	case ProviderPostHog:
		if !r.cfg.PostHog.Configured() {
			return nil, errIncompleteConfig(kind, "api_key")
		}
		return NewPostHog(r.cfg.PostHog, r.posthogLookup()), nil
	case ProviderPlausible:
		if !r.cfg.Plausible.Configured() {
			return nil, errIncompleteConfig(kind, "domain")
		}
		return NewPlausible(r.cfg.Plausible, r.plausibleLookup()), nil
	default:
		return nil, errIncompleteConfig(kind, "provider kind")
	}
}

func (r *Registry) gtagLookup() func() (bootstrap.GtagHandle, bool) {
	if r.hub == nil {
		return nil
	}
	return r.hub.Gtag
}

func (r *Registry) posthogLookup() func() (bootstrap.PostHogHandle, bool) {
	if r.hub == nil {
		return nil
	}
	return r.hub.PostHog
}

func (r *Registry) plausibleLookup() func() (bootstrap.PlausibleHandle, bool) {
	if r.hub == nil {
		return nil
	}
	return r.hub.Plausible
}

// Init initializes the live provider. Concurrent callers collapse onto one
// in-flight initialization; once that completes, later calls return its
// memoized result without re-invoking the adapter. A nil Client makes Init
// a no-op. The caller's ctx bounds only the caller's wait, not the shared
// initialization, which runs to completion under the adapter's own timeout.
func (r *Registry) Init(ctx context.Context) error {
	r.mu.Lock()
	client := r.clientLocked()
	if client == nil {
		r.mu.Unlock()
		return nil
	}
	if r.init == nil {
		call := &initCall{done: make(chan struct{})}
		r.init = call
		go func() {
			call.err = client.Init(context.Background())
			close(call.done)
		}()
	}
	call := r.init
	r.mu.Unlock()

	select {
	case <-call.done:
		return call.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears the cached instance, the in-flight initialization, and the
// warn-once flag, so a subsequent Client() re-resolves and reconstructs from
// scratch (picking up configuration or consent changes).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client = nil
	r.attempted = false
	r.warned = false
	r.init = nil
}

func (r *Registry) warnOnce(msg string) {
	if r.warned {
		return
	}
	r.warned = true
	r.logger.Warn().Msg(msg)
}
