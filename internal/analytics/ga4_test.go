// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tracklight/tracklight/internal/bootstrap"
	"github.com/tracklight/tracklight/internal/config"
)

func newTestGA4(handle *bootstrap.RecordingGtag) *GA4 {
	hub := bootstrap.NewHub()
	if handle != nil {
		hub.SetGtag(handle)
	}
	hub.SetPageSource(bootstrap.StaticPage{Info: bootstrap.PageInfo{
		URL:      "https://app.example.com/dashboard",
		Path:     "/dashboard",
		Referrer: "https://example.com",
		Title:    "Dashboard",
	}})
	page, _ := hub.PageSource()
	return NewGA4(config.GA4Config{MeasurementID: "G-TEST"}, hub.Gtag, page)
}

// lastCall returns the most recent recorded gtag call.
func lastCall(t *testing.T, handle *bootstrap.RecordingGtag) bootstrap.GtagCall {
	t.Helper()
	calls := handle.Calls()
	if len(calls) == 0 {
		t.Fatal("no gtag calls recorded")
	}
	return calls[len(calls)-1]
}

func TestGA4_MethodsBeforeInitFail(t *testing.T) {
	g := newTestGA4(&bootstrap.RecordingGtag{})
	ctx := context.Background()

	for name, res := range map[string]TrackResult{
		"identify": g.Identify(ctx, "u1", nil),
		"track":    g.Track(ctx, "evt", nil),
		"page":     g.Page(ctx, "Home", nil),
		"reset":    g.Reset(ctx),
	} {
		if res.Success {
			t.Errorf("%s before Init should fail", name)
		}
		if !strings.Contains(res.Error, "not initialized") {
			t.Errorf("%s error = %q, want not-initialized message", name, res.Error)
		}
	}
}

func TestGA4_InitConfiguresStream(t *testing.T) {
	handle := &bootstrap.RecordingGtag{}
	g := newTestGA4(handle)

	if err := g.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !g.Ready() {
		t.Fatal("should be ready after Init")
	}

	calls := handle.Calls()
	if len(calls) != 1 || calls[0].Command != "config" {
		t.Fatalf("calls = %v, want one config call", calls)
	}
	if calls[0].Args[0] != "G-TEST" {
		t.Errorf("config target = %v, want G-TEST", calls[0].Args[0])
	}

	// Idempotent: second Init issues no further vendor calls.
	if err := g.Init(context.Background()); err != nil {
		t.Fatalf("repeated Init() error = %v", err)
	}
	if got := len(handle.Calls()); got != 1 {
		t.Errorf("repeated Init made %d calls, want 1", got)
	}
}

func TestGA4_InitTimesOutWithoutHandle(t *testing.T) {
	hub := bootstrap.NewHub()
	g := NewGA4(config.GA4Config{MeasurementID: "G-TEST"}, hub.Gtag, nil, WithGA4Timeout(120*time.Millisecond))

	err := g.Init(context.Background())
	if err == nil {
		t.Fatal("Init without a handle should time out")
	}
	if !ErrHandleTimeout(err) {
		t.Errorf("err = %v, want handle timeout", err)
	}
	if g.Ready() {
		t.Error("should not be ready after timeout")
	}
}

func TestGA4_InitSeesLatePublishedHandle(t *testing.T) {
	hub := bootstrap.NewHub()
	g := NewGA4(config.GA4Config{MeasurementID: "G-TEST"}, hub.Gtag, nil, WithGA4Timeout(2*time.Second))

	go func() {
		time.Sleep(150 * time.Millisecond)
		hub.SetGtag(&bootstrap.RecordingGtag{})
	}()

	if err := g.Init(context.Background()); err != nil {
		t.Fatalf("Init() should succeed once the handle appears, got %v", err)
	}
}

func TestGA4_TrackAnswersWhileInitWaits(t *testing.T) {
	hub := bootstrap.NewHub()
	g := NewGA4(config.GA4Config{MeasurementID: "G-TEST"}, hub.Gtag, nil, WithGA4Timeout(2*time.Second))

	initDone := make(chan error, 1)
	go func() { initDone <- g.Init(context.Background()) }()
	time.Sleep(100 * time.Millisecond)

	// Init is still waiting for the handle; callers must not queue behind it.
	start := time.Now()
	res := g.Track(context.Background(), "evt", nil)
	elapsed := time.Since(start)

	if res.Success {
		t.Error("Track during init should fail")
	}
	if !strings.Contains(res.Error, "not initialized") {
		t.Errorf("error = %q, want not-initialized message", res.Error)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Track blocked %s behind the handle wait", elapsed)
	}
	if g.Ready() {
		t.Error("should not report ready while init is in flight")
	}

	hub.SetGtag(&bootstrap.RecordingGtag{})
	if err := <-initDone; err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

func TestGA4_IdentifyFiltersTraits(t *testing.T) {
	handle := &bootstrap.RecordingGtag{}
	g := newTestGA4(handle)
	ctx := context.Background()
	if err := g.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	res := g.Identify(ctx, "user-7", &Traits{
		Email:   "u@example.com",
		Name:    "Uma",
		Plan:    "pro",
		Company: "Example Inc",
		Extra:   map[string]any{"favorite_color": "green"},
	})
	if !res.Success {
		t.Fatalf("Identify failed: %v", res.Error)
	}

	set := lastCall(t, handle)
	if set.Command != "set" || set.Args[0] != "user_properties" {
		t.Fatalf("last call = %+v, want set user_properties", set)
	}
	props := set.Args[1].(map[string]any)
	for _, key := range []string{"email", "name", "plan", "company"} {
		if _, present := props[key]; !present {
			t.Errorf("allow-listed trait %q missing: %v", key, props)
		}
	}
	if _, present := props["favorite_color"]; present {
		t.Errorf("unrecognized trait should be dropped: %v", props)
	}
}

func TestGA4_TrackRevenueOverridesValue(t *testing.T) {
	handle := &bootstrap.RecordingGtag{}
	g := newTestGA4(handle)
	ctx := context.Background()
	if err := g.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	g.Track(ctx, "plan_upgraded", &Properties{
		Category: "billing",
		Value:    Float64(1),
		Revenue:  Float64(29.0),
	})

	call := lastCall(t, handle)
	if call.Command != "event" || call.Args[0] != "plan_upgraded" {
		t.Fatalf("last call = %+v, want plan_upgraded event", call)
	}
	params := call.Args[1].(map[string]any)
	if params["value"] != 29.0 {
		t.Errorf("value = %v, want revenue override 29.0", params["value"])
	}
	if params["currency"] != "USD" {
		t.Errorf("currency = %v, want USD default", params["currency"])
	}
	if params["event_category"] != "billing" {
		t.Errorf("event_category = %v, want billing", params["event_category"])
	}
}

func TestGA4_PageDefaultsFromPageSource(t *testing.T) {
	handle := &bootstrap.RecordingGtag{}
	g := newTestGA4(handle)
	ctx := context.Background()
	if err := g.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	g.Page(ctx, "", nil)

	call := lastCall(t, handle)
	if call.Args[0] != "page_view" {
		t.Fatalf("last call = %+v, want page_view", call)
	}
	params := call.Args[1].(map[string]any)
	if params["page_location"] != "https://app.example.com/dashboard" {
		t.Errorf("page_location = %v, want default from page source", params["page_location"])
	}
	if params["page_path"] != "/dashboard" {
		t.Errorf("page_path = %v, want default", params["page_path"])
	}
	if params["page_title"] != "Dashboard" {
		t.Errorf("page_title = %v, want default", params["page_title"])
	}

	// Explicit properties win over defaults.
	g.Page(ctx, "Settings", &PageProperties{Path: "/settings"})
	params = lastCall(t, handle).Args[1].(map[string]any)
	if params["page_path"] != "/settings" || params["page_title"] != "Settings" {
		t.Errorf("explicit page fields should override defaults: %v", params)
	}
}

func TestGA4_ResetClearsUserState(t *testing.T) {
	handle := &bootstrap.RecordingGtag{}
	g := newTestGA4(handle)
	ctx := context.Background()
	if err := g.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	g.Identify(ctx, "user-7", &Traits{Email: "u@example.com"})
	g.Reset(ctx)

	calls := handle.Calls()
	// Reset issues a config call nulling user_id, then nulls the trait keys.
	set := calls[len(calls)-1]
	if set.Command != "set" || set.Args[0] != "user_properties" {
		t.Fatalf("last call = %+v, want set user_properties", set)
	}
	props := set.Args[1].(map[string]any)
	for _, key := range []string{"email", "name", "plan", "company"} {
		v, present := props[key]
		if !present || v != nil {
			t.Errorf("trait %q should be explicitly nulled, got %v", key, v)
		}
	}

	cfg := calls[len(calls)-2]
	if cfg.Command != "config" {
		t.Fatalf("second-to-last call = %+v, want config", cfg)
	}
	if cfg.Args[1].(map[string]any)["user_id"] != nil {
		t.Error("user_id should be nulled on reset")
	}
}
