// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"testing"

	"github.com/tracklight/tracklight/internal/consent"
)

func TestFormSubmittedEvent(t *testing.T) {
	tests := []struct {
		formName string
		want     string
	}{
		{"contact", "contact_form_submitted"},
		{"Bug Report", "bug_report_form_submitted"},
		{"Feature  Request", "feature_request_form_submitted"},
		{"sign-up", "sign_up_form_submitted"},
		{"Beta - Waitlist", "beta_waitlist_form_submitted"},
		{"FEEDBACK", "feedback_form_submitted"},
	}
	for _, tt := range tests {
		if got := FormSubmittedEvent(tt.formName); got != tt.want {
			t.Errorf("FormSubmittedEvent(%q) = %q, want %q", tt.formName, got, tt.want)
		}
	}
}

// namedRecorder captures the event names that reach the provider.
type namedRecorder struct {
	stubProvider
	events []string
}

func (n *namedRecorder) Track(_ context.Context, event string, _ *Properties) TrackResult {
	n.events = append(n.events, event)
	return OK()
}

func (n *namedRecorder) Identify(context.Context, string, *Traits) TrackResult { return OK() }

func newEventsFacade() (*Facade, *namedRecorder) {
	p := &namedRecorder{}
	p.ready.Store(true)
	f := NewFacade(&countingRegistry{provider: p}, consent.NewStore(true))
	return f, p
}

func TestTrackLoginUsesCatalogName(t *testing.T) {
	f, p := newEventsFacade()
	defer f.Close()

	res := f.TrackLogin(context.Background(), "u1", nil, LoginProperties{Method: "email"})
	if !res.Success {
		t.Fatalf("TrackLogin = %+v", res)
	}
	if len(p.events) != 1 || p.events[0] != EventUserLoggedIn {
		t.Errorf("events = %v, want [%s]", p.events, EventUserLoggedIn)
	}
}

func TestTrackLogoutTracksThenResets(t *testing.T) {
	f, p := newEventsFacade()
	defer f.Close()

	res := f.TrackLogout(context.Background())
	if !res.Success {
		t.Fatalf("TrackLogout = %+v", res)
	}
	if len(p.events) != 1 || p.events[0] != EventUserLoggedOut {
		t.Errorf("events = %v, want [%s]", p.events, EventUserLoggedOut)
	}
}

func TestTrackFormSubmittedNormalizes(t *testing.T) {
	f, p := newEventsFacade()
	defer f.Close()

	res := f.TrackFormSubmitted(context.Background(), "Bug Report", nil)
	if !res.Success {
		t.Fatalf("TrackFormSubmitted = %+v", res)
	}
	if len(p.events) != 1 || p.events[0] != "bug_report_form_submitted" {
		t.Errorf("events = %v, want [bug_report_form_submitted]", p.events)
	}
}
