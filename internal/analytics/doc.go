// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package analytics implements the provider-agnostic event tracking core.
//
// The package is organized around four pieces:
//
//   - Provider adapters (Console, GA4, PostHog, Plausible) implementing a
//     uniform capability contract over vendor interfaces with materially
//     different capabilities.
//   - Resolve, a pure function deciding which provider is active with
//     explicit-override > credential-detection > development-fallback
//     precedence.
//   - Registry, the owner of the single live adapter instance with lazy
//     construction, idempotent initialization, and explicit reset.
//   - Facade, the consent-gated surface call sites use instead of talking
//     to providers directly.
//
// Every tracking operation returns a TrackResult; nothing in this package
// panics across the Facade boundary for tracking failures. Delivery is
// best-effort and fire-and-forget: there is no buffering, batching, or
// retry queue.
package analytics
