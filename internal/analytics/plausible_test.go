// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/tracklight/tracklight/internal/bootstrap"
	"github.com/tracklight/tracklight/internal/config"
)

func newTestPlausible(handle *bootstrap.RecordingPlausible) *Plausible {
	hub := bootstrap.NewHub()
	if handle != nil {
		hub.SetPlausible(handle)
	}
	return NewPlausible(config.PlausibleConfig{Domain: "app.example.com"}, hub.Plausible)
}

func TestPlausible_InitRequiresHandle(t *testing.T) {
	hub := bootstrap.NewHub()
	p := NewPlausible(config.PlausibleConfig{Domain: "app.example.com"}, hub.Plausible)

	if err := p.Init(context.Background()); err == nil {
		t.Fatal("Init without a published handle should fail")
	}

	hub.SetPlausible(&bootstrap.RecordingPlausible{})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !p.Ready() {
		t.Error("should be ready after Init")
	}
}

func TestPlausible_IdentifyAndResetAlwaysSucceed(t *testing.T) {
	handle := &bootstrap.RecordingPlausible{FireCallback: true}
	p := newTestPlausible(handle)
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	for _, userID := range []string{"user-1", "", "anything"} {
		if res := p.Identify(ctx, userID, &Traits{Email: "u@example.com"}); !res.Success {
			t.Errorf("Identify(%q) = %+v, want success", userID, res)
		}
	}
	if res := p.Reset(ctx); !res.Success {
		t.Errorf("Reset = %+v, want success", res)
	}

	// No identity API exists to contact: the vendor handle sees nothing.
	if got := len(handle.Calls()); got != 0 {
		t.Errorf("identify/reset contacted the vendor %d times, want 0", got)
	}
}

func TestPlausible_TrackFiltersNonPrimitives(t *testing.T) {
	handle := &bootstrap.RecordingPlausible{FireCallback: true}
	p := newTestPlausible(handle)
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	res := p.Track(ctx, "report_exported", &Properties{
		Category: "reports",
		Value:    Float64(3),
		Extra: map[string]any{
			"format":   "csv",
			"rows":     1200,
			"detailed": true,
			"columns":  []string{"a", "b"},          // dropped
			"nested":   map[string]any{"x": 1},      // dropped
			"fn":       func() {},                   // dropped
			"when":     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), // dropped
		},
	})
	if !res.Success {
		t.Fatalf("Track failed: %v", res.Error)
	}

	calls := handle.Calls()
	if len(calls) != 1 || calls[0].Event != "report_exported" {
		t.Fatalf("calls = %+v", calls)
	}
	props := calls[0].Opts.Props
	for _, key := range []string{"category", "value", "format", "rows", "detailed"} {
		if _, present := props[key]; !present {
			t.Errorf("primitive prop %q missing: %v", key, props)
		}
	}
	for _, key := range []string{"columns", "nested", "fn", "when"} {
		if _, present := props[key]; present {
			t.Errorf("non-primitive prop %q should be dropped: %v", key, props)
		}
	}
}

func TestPlausible_TrackSucceedsWithoutCallback(t *testing.T) {
	// FireCallback=false imitates the queueing stub: the callback never
	// fires and Track must still resolve success after its bounded wait.
	handle := &bootstrap.RecordingPlausible{FireCallback: false}
	p := newTestPlausible(handle)
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	start := time.Now()
	res := p.Track(ctx, "silent_event", nil)
	elapsed := time.Since(start)

	if !res.Success {
		t.Errorf("Track without callback = %+v, want success", res)
	}
	if elapsed < plausibleCallbackTimeout {
		t.Errorf("elapsed = %v, want at least the %v callback wait", elapsed, plausibleCallbackTimeout)
	}
	if elapsed > plausibleCallbackTimeout+400*time.Millisecond {
		t.Errorf("elapsed = %v, wait should be bounded near %v", elapsed, plausibleCallbackTimeout)
	}
}

func TestPlausible_TrackReturnsPromptlyWithCallback(t *testing.T) {
	handle := &bootstrap.RecordingPlausible{FireCallback: true}
	p := newTestPlausible(handle)
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	start := time.Now()
	res := p.Track(ctx, "fast_event", nil)
	if !res.Success {
		t.Fatalf("Track failed: %v", res.Error)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("elapsed = %v, callback should short-circuit the wait", elapsed)
	}
}

func TestPlausible_PageSetsURL(t *testing.T) {
	handle := &bootstrap.RecordingPlausible{FireCallback: true}
	p := newTestPlausible(handle)
	ctx := context.Background()
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	p.Page(ctx, "Dashboard", &PageProperties{URL: "https://app.example.com/d"})

	calls := handle.Calls()
	last := calls[len(calls)-1]
	if last.Event != "pageview" {
		t.Fatalf("event = %q, want pageview", last.Event)
	}
	if last.Opts.URL != "https://app.example.com/d" {
		t.Errorf("URL = %q", last.Opts.URL)
	}
	if last.Opts.Props["page_name"] != "Dashboard" {
		t.Errorf("props = %v", last.Opts.Props)
	}
}

func TestPlausible_MethodsBeforeInitFail(t *testing.T) {
	p := newTestPlausible(&bootstrap.RecordingPlausible{})
	ctx := context.Background()

	if res := p.Track(ctx, "evt", nil); res.Success {
		t.Error("Track before Init should fail")
	}
	if res := p.Identify(ctx, "u", nil); res.Success {
		t.Error("Identify before Init should fail")
	}
}
