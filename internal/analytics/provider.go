// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"time"
)

// Provider is the uniform capability contract implemented by every adapter.
//
// Lifecycle: an adapter starts not-ready and becomes ready when Init
// completes successfully. Init is idempotent; there is no path back to
// not-ready except replacement of the instance by the Registry. Any method
// called before Init completes returns a failed TrackResult with a
// provider-specific "not initialized" message rather than panicking.
type Provider interface {
	// Name returns the provider kind.
	Name() ProviderKind

	// Init prepares the adapter for tracking. Idempotent: calling Init on a
	// ready adapter is a no-op. May block, bounded by the adapter's own
	// timeout (e.g. waiting for a vendor handle to become available).
	Init(ctx context.Context) error

	// Identify associates subsequent events with a user.
	Identify(ctx context.Context, userID string, traits *Traits) TrackResult

	// Track records a named event with optional properties.
	Track(ctx context.Context, event string, props *Properties) TrackResult

	// Page records a page view.
	Page(ctx context.Context, name string, props *PageProperties) TrackResult

	// Reset clears any user association held by the adapter.
	Reset(ctx context.Context) TrackResult

	// Ready reports whether Init has completed successfully.
	Ready() bool

	// Features reports the adapter's capability flags.
	Features() Features
}

// handleWaitInterval is the polling interval used while waiting for a vendor
// handle to become available.
const handleWaitInterval = 50 * time.Millisecond

// defaultHandleTimeout bounds how long GA4 and PostHog adapters wait for
// their vendor handle before Init fails.
const defaultHandleTimeout = 5 * time.Second

// waitForHandle polls lookup until it yields a handle or the timeout elapses.
// The wait is also cut short by ctx cancellation.
func waitForHandle[T any](ctx context.Context, timeout time.Duration, lookup func() (T, bool)) (T, error) {
	var zero T
	if lookup == nil {
		return zero, errNoBootstrap
	}
	if h, ok := lookup(); ok {
		return h, nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(handleWaitInterval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if h, ok := lookup(); ok {
				return h, nil
			}
		case <-deadline.C:
			return zero, errHandleTimeout
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
