// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package bootstrap defines the vendor handle interfaces that provider
// adapters depend on, and the Hub through which the embedding platform
// publishes handles once vendor libraries have finished loading.
//
// Loading the vendor libraries themselves (script injection in a browser
// shell, SDK setup in a desktop shell) is outside this package's scope.
// Adapters only need a "handle may appear later" contract: they look the
// handle up through the Hub and wait, bounded, until it is available.
package bootstrap

import "sync"

// GtagHandle is the gtag.js command interface published by a GA4 bootstrap.
type GtagHandle interface {
	// Gtag issues a gtag command ("config", "event", "set") with its arguments.
	Gtag(command string, args ...any)
}

// PostHogHandle is the posthog-js surface published by a PostHog bootstrap.
type PostHogHandle interface {
	Init(apiKey string, options map[string]any)
	Identify(distinctID string, properties map[string]any)
	Capture(event string, properties map[string]any)
	Reset()

	// Feature flag surface, additive beyond the common adapter contract.
	IsFeatureEnabled(flag string) bool
	GetFeatureFlag(flag string) any
	OnFeatureFlags(callback func())
}

// PlausibleOptions carries the optional arguments of a Plausible trigger.
type PlausibleOptions struct {
	// URL overrides the page URL attributed to the event.
	URL string

	// Props is the flat property bag. Values must be primitives; the
	// Plausible adapter filters non-primitive values before triggering.
	Props map[string]any

	// Callback is invoked by the vendor when the event has been handled.
	// The vendor may never invoke it; callers bound their wait.
	Callback func()
}

// PlausibleHandle is the plausible.js trigger function. The script installs
// a queueing stub immediately, so a handle is available as soon as the
// bootstrap has run even if the full library is still loading.
type PlausibleHandle interface {
	Trigger(event string, opts PlausibleOptions)
}

// PageInfo describes the current page as known to the embedding platform.
type PageInfo struct {
	URL      string
	Path     string
	Referrer string
	Title    string
}

// PageSource supplies page context for adapters that default page-view
// fields from the environment.
type PageSource interface {
	PageInfo() PageInfo
}

// StaticPage is a PageSource returning a fixed PageInfo.
type StaticPage struct {
	Info PageInfo
}

// PageInfo returns the fixed page info.
func (s StaticPage) PageInfo() PageInfo {
	return s.Info
}

// Hub is the threadsafe holder through which the platform publishes vendor
// handles. Adapters read handles through the lookup methods; absent handles
// yield ok=false until the platform sets them.
type Hub struct {
	mu        sync.RWMutex
	gtag      GtagHandle
	posthog   PostHogHandle
	plausible PlausibleHandle
	page      PageSource
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// SetGtag publishes the gtag handle.
func (h *Hub) SetGtag(g GtagHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gtag = g
}

// Gtag returns the gtag handle if published.
func (h *Hub) Gtag() (GtagHandle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gtag, h.gtag != nil
}

// SetPostHog publishes the posthog handle.
func (h *Hub) SetPostHog(p PostHogHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.posthog = p
}

// PostHog returns the posthog handle if published.
func (h *Hub) PostHog() (PostHogHandle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.posthog, h.posthog != nil
}

// SetPlausible publishes the plausible handle.
func (h *Hub) SetPlausible(p PlausibleHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plausible = p
}

// Plausible returns the plausible handle if published.
func (h *Hub) Plausible() (PlausibleHandle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.plausible, h.plausible != nil
}

// SetPageSource publishes the page context source.
func (h *Hub) SetPageSource(p PageSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.page = p
}

// PageSource returns the page context source if published.
func (h *Hub) PageSource() (PageSource, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.page, h.page != nil
}
