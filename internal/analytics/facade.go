// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/tracklight/tracklight/internal/consent"
	"github.com/tracklight/tracklight/internal/metrics"
)

// consentDeniedMsg is the fixed failure message for calls attempted without
// consent. Expected and benign; never logged as an error.
const consentDeniedMsg = "Analytics not available"

// notReadyMsg is the failure message when consent is granted but no client
// exists or it has not finished initializing.
const notReadyMsg = "Analytics not ready"

// clientRegistry is the Registry surface the Facade depends on. Satisfied by
// *Registry; a narrow interface so tests can count calls.
type clientRegistry interface {
	Client() Provider
	Live() Provider
	Init(ctx context.Context) error
	Reset()
}

// Facade is the consent-gated surface call sites use for one mounted
// session. Every call except Reset first checks consent; without it the
// registry is never touched. Consent transitions drive the client
// lifecycle: grant triggers one initialization, revocation resets the
// registry so the next grant starts clean.
//
// No adapter failure, or panic, escapes a Facade method as a panic; all are
// folded into a failed TrackResult.
type Facade struct {
	reg    clientRegistry
	src    consent.Source
	cancel func()

	initTimeout time.Duration

	mu          sync.Mutex
	lastConsent bool
}

// FacadeOption customizes a Facade.
type FacadeOption func(*Facade)

// WithInitTimeout bounds how long consent-driven initialization is waited on
// (default 10s; the adapter's own handle timeout is usually the real bound).
func WithInitTimeout(d time.Duration) FacadeOption {
	return func(f *Facade) { f.initTimeout = d }
}

// NewFacade creates a Facade bound to one consent source and subscribes to
// its transitions. If consent is already granted at mount, initialization is
// triggered immediately. Call Close when the session unmounts.
func NewFacade(reg clientRegistry, src consent.Source, opts ...FacadeOption) *Facade {
	f := &Facade{
		reg:         reg,
		src:         src,
		initTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.lastConsent = src.HasOptionalConsent()
	f.cancel = src.Subscribe(f.onConsentChange)

	if f.lastConsent {
		f.initClient()
	}
	return f
}

// Close unsubscribes from the consent source.
func (f *Facade) Close() {
	if f.cancel != nil {
		f.cancel()
	}
}

// onConsentChange handles a consent transition. Only true edges arrive here
// (the source de-duplicates), but the facade still tracks its own previous
// value so a revocation edge is only acted on when a grant was seen before.
func (f *Facade) onConsentChange(granted bool) {
	f.mu.Lock()
	prev := f.lastConsent
	f.lastConsent = granted
	f.mu.Unlock()

	switch {
	case granted && !prev:
		f.initClient()
	case !granted && prev:
		// Best-effort reset of the live client first, then a registry reset
		// so the next grant reconstructs from scratch. Live() rather than
		// Client(): revocation must not lazily construct an instance.
		if c := f.reg.Live(); c != nil && c.Ready() {
			ctx, cancel := context.WithTimeout(context.Background(), f.initTimeout)
			recoverResult("reset", func() TrackResult {
				return c.Reset(ctx)
			})
			cancel()
		}
		f.reg.Reset()
	}
}

// initClient triggers registry initialization. Re-entrant calls while an
// initialization is in flight collapse inside the registry.
func (f *Facade) initClient() {
	ctx, cancel := context.WithTimeout(context.Background(), f.initTimeout)
	defer cancel()
	if err := f.reg.Init(ctx); err != nil {
		// Init failures degrade to not-ready tracking results; nothing to
		// surface to the caller here.
		_ = err
	}
}

// consented reports the current consent state as the facade saw it last.
func (f *Facade) consented() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastConsent
}

// Identify associates the session with a user. Consent-gated.
func (f *Facade) Identify(ctx context.Context, userID string, traits *Traits) TrackResult {
	return f.call(ctx, "identify", func(ctx context.Context, c Provider) TrackResult {
		return c.Identify(ctx, userID, traits)
	})
}

// Track records a named event. Consent-gated.
func (f *Facade) Track(ctx context.Context, event string, props *Properties) TrackResult {
	return f.call(ctx, "track", func(ctx context.Context, c Provider) TrackResult {
		return c.Track(ctx, event, props)
	})
}

// Page records a page view. Consent-gated.
func (f *Facade) Page(ctx context.Context, name string, props *PageProperties) TrackResult {
	return f.call(ctx, "page", func(ctx context.Context, c Provider) TrackResult {
		return c.Page(ctx, name, props)
	})
}

// Reset clears the live client's user association (e.g. on logout). Not
// consent-gated: clearing identity is always permitted.
func (f *Facade) Reset(ctx context.Context) TrackResult {
	c := f.reg.Live()
	if c == nil || !c.Ready() {
		return Fail(notReadyMsg)
	}
	return recoverResult("reset", func() TrackResult {
		return c.Reset(ctx)
	})
}

// IdentifyThenTrack issues Identify and, only after it completes (or fails),
// the dependent Track. Some providers bind subsequent events to the
// identified user, so the ordering matters on flows like login.
func (f *Facade) IdentifyThenTrack(ctx context.Context, userID string, traits *Traits, event string, props *Properties) TrackResult {
	if res := f.Identify(ctx, userID, traits); !res.Success {
		return res
	}
	return f.Track(ctx, event, props)
}

// Ready is derived, never stored: consent granted AND a client exists AND it
// finished initializing.
func (f *Facade) Ready() bool {
	if !f.consented() {
		return false
	}
	c := f.reg.Live()
	return c != nil && c.Ready()
}

// Enabled reports whether a provider resolves at all for this session.
func (f *Facade) Enabled() bool {
	if !f.consented() {
		return false
	}
	return f.reg.Client() != nil
}

// ProviderName returns the live provider's kind, or empty when none exists.
func (f *Facade) ProviderName() ProviderKind {
	c := f.reg.Live()
	if c == nil {
		return ""
	}
	return c.Name()
}

// call applies the consent gate and readiness check, then runs fn under
// panic protection.
func (f *Facade) call(ctx context.Context, method string, fn func(context.Context, Provider) TrackResult) TrackResult {
	if !f.consented() {
		metrics.ConsentBlockedCalls.Inc()
		return Fail(consentDeniedMsg)
	}

	c := f.reg.Client()
	if c == nil || !c.Ready() {
		return Fail(notReadyMsg)
	}

	return recoverResult(method, func() TrackResult {
		return fn(ctx, c)
	})
}

// recoverResult runs fn and converts any panic into a failed TrackResult
// carrying the stringified panic value. Nothing propagates to UI call sites.
func recoverResult(method string, fn func() TrackResult) (res TrackResult) {
	defer func() {
		if r := recover(); r != nil {
			res = Failf("analytics %s failed: %v", method, r)
		}
	}()
	return fn()
}
