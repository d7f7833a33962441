// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/tracklight/tracklight/internal/bootstrap"
	"github.com/tracklight/tracklight/internal/config"
	"github.com/tracklight/tracklight/internal/metrics"
)

// plausibleCallbackTimeout bounds the wait for the vendor delivery callback.
// The vendor may never fire the callback (ad blockers, queueing stub), so
// Track and Page resolve success either way once the timeout elapses.
const plausibleCallbackTimeout = 500 * time.Millisecond

// Plausible is the Plausible adapter. The vendor has no per-user identity
// model: Identify and Reset are deliberate, always-successful no-ops. Track
// and Page filter the property bag to primitive values only; everything else
// is silently dropped.
type Plausible struct {
	cfg    config.PlausibleConfig
	lookup func() (bootstrap.PlausibleHandle, bool)

	mu     sync.RWMutex
	handle bootstrap.PlausibleHandle
	ready  bool
}

// NewPlausible creates the Plausible adapter.
func NewPlausible(cfg config.PlausibleConfig, lookup func() (bootstrap.PlausibleHandle, bool)) *Plausible {
	return &Plausible{
		cfg:    cfg,
		lookup: lookup,
	}
}

// Name returns the provider kind.
func (p *Plausible) Name() ProviderKind {
	return ProviderPlausible
}

// Init grabs the trigger handle. The plausible snippet installs a queueing
// stub immediately, so no bounded wait is needed here; absence of any handle
// means the bootstrap never ran.
func (p *Plausible) Init(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if p.lookup == nil {
		metrics.RecordAdapterInit(string(ProviderPlausible), 0, initFailureReason(errNoBootstrap))
		return errNoBootstrap
	}
	handle, ok := p.lookup()
	if !ok {
		metrics.RecordAdapterInit(string(ProviderPlausible), 0, initFailureReason(errNoBootstrap))
		return errNoBootstrap
	}
	p.handle = handle
	p.ready = true
	metrics.RecordAdapterInit(string(ProviderPlausible), 0, "")
	return nil
}

// Ready reports whether Init has completed successfully.
func (p *Plausible) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Features reports Plausible capabilities. No identity model, no revenue.
func (p *Plausible) Features() Features {
	return Features{
		EventProperties: true,
		PageTracking:    true,
	}
}

func (p *Plausible) current() (bootstrap.PlausibleHandle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle, p.ready
}

// Identify is an explicit no-op: Plausible has no user identity API to call.
// Always succeeds so call sites need no provider-specific branching.
func (p *Plausible) Identify(_ context.Context, _ string, _ *Traits) TrackResult {
	if !p.Ready() {
		metrics.RecordAdapterCall(string(ProviderPlausible), "identify", false)
		return Fail("Plausible not initialized")
	}
	metrics.RecordAdapterCall(string(ProviderPlausible), "identify", true)
	return OK()
}

// Track triggers a custom event with the primitive-filtered property bag and
// races the vendor callback against the fixed timeout, resolving success
// either way.
func (p *Plausible) Track(ctx context.Context, event string, props *Properties) TrackResult {
	handle, ok := p.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderPlausible), "track", false)
		return Fail("Plausible not initialized")
	}

	p.trigger(ctx, handle, event, bootstrap.PlausibleOptions{
		Props: filterPrimitives(flattenProperties(props)),
	})
	metrics.RecordAdapterCall(string(ProviderPlausible), "track", true)
	return OK()
}

// Page triggers the vendor's pageview event.
func (p *Plausible) Page(ctx context.Context, name string, props *PageProperties) TrackResult {
	handle, ok := p.current()
	if !ok {
		metrics.RecordAdapterCall(string(ProviderPlausible), "page", false)
		return Fail("Plausible not initialized")
	}

	opts := bootstrap.PlausibleOptions{Props: map[string]any{}}
	if name != "" {
		opts.Props["page_name"] = name
	}
	if props != nil {
		opts.URL = props.URL
		for k, v := range props.Extra {
			opts.Props[k] = v
		}
	}
	opts.Props = filterPrimitives(opts.Props)

	p.trigger(ctx, handle, "pageview", opts)
	metrics.RecordAdapterCall(string(ProviderPlausible), "page", true)
	return OK()
}

// Reset is an explicit no-op: there is no vendor identity to clear.
func (p *Plausible) Reset(_ context.Context) TrackResult {
	if !p.Ready() {
		metrics.RecordAdapterCall(string(ProviderPlausible), "reset", false)
		return Fail("Plausible not initialized")
	}
	metrics.RecordAdapterCall(string(ProviderPlausible), "reset", true)
	return OK()
}

// trigger fires the vendor call and waits for its callback, bounded by
// plausibleCallbackTimeout. Delivery failures are invisible here on purpose;
// no caller branches on them and UI responsiveness wins.
func (p *Plausible) trigger(ctx context.Context, handle bootstrap.PlausibleHandle, event string, opts bootstrap.PlausibleOptions) {
	done := make(chan struct{}, 1)
	opts.Callback = func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}

	handle.Trigger(event, opts)

	timer := time.NewTimer(plausibleCallbackTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	case <-ctx.Done():
	}
}

// filterPrimitives keeps only string, numeric, and boolean values.
func filterPrimitives(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = v
		}
	}
	return out
}
