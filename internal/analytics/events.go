// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"context"
	"regexp"
	"strings"
)

// Event names are snake_case past-tense by convention. The catalog below is
// closed for the auth and settings domains; the generic form-submission path
// permits arbitrary event names built by FormSubmittedEvent.

// Auth events.
const (
	EventUserSignedUp           = "user_signed_up"
	EventUserLoggedIn           = "user_logged_in"
	EventUserLoggedOut          = "user_logged_out"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordResetCompleted = "password_reset_completed"
	EventEmailVerified          = "email_verified"
)

// Settings events.
const (
	EventProfileUpdated              = "profile_updated"
	EventPasswordChanged             = "password_changed"
	EventNotificationSettingsUpdated = "notification_settings_updated"
	EventAccountDeleted              = "account_deleted"
)

// SignupProperties is the property shape for EventUserSignedUp.
type SignupProperties struct {
	Method   string `json:"method,omitempty"` // "email", "google", "github"
	Plan     string `json:"plan,omitempty"`
	Referrer string `json:"referrer,omitempty"`
}

// LoginProperties is the property shape for EventUserLoggedIn.
type LoginProperties struct {
	Method string `json:"method,omitempty"`
}

// ProfileUpdateProperties is the property shape for EventProfileUpdated.
type ProfileUpdateProperties struct {
	Fields []string `json:"fields,omitempty"`
}

// formNameSeparators matches the runs of whitespace and hyphens that
// FormSubmittedEvent collapses into single underscores.
var formNameSeparators = regexp.MustCompile(`[\s-]+`)

// FormSubmittedEvent builds the event name for a generic form submission:
// the form name lowercased, runs of whitespace/hyphens replaced with a
// single underscore, suffixed with "_form_submitted".
//
//	FormSubmittedEvent("Bug Report") == "bug_report_form_submitted"
//	FormSubmittedEvent("contact")    == "contact_form_submitted"
func FormSubmittedEvent(formName string) string {
	normalized := formNameSeparators.ReplaceAllString(strings.ToLower(formName), "_")
	return normalized + "_form_submitted"
}

// Domain helpers. Thin forwarding wrappers so call sites use catalog names
// and the correct ordering without repeating them.

// TrackSignup identifies the new user, then records the signup event.
func (f *Facade) TrackSignup(ctx context.Context, userID string, traits *Traits, props SignupProperties) TrackResult {
	return f.IdentifyThenTrack(ctx, userID, traits, EventUserSignedUp, &Properties{
		Category: "auth",
		Label:    props.Method,
		Extra: map[string]any{
			"method":   props.Method,
			"plan":     props.Plan,
			"referrer": props.Referrer,
		},
	})
}

// TrackLogin identifies the user, then records the login event. Identify
// completes before the event is issued so providers that bind events to the
// identified user attribute it correctly.
func (f *Facade) TrackLogin(ctx context.Context, userID string, traits *Traits, props LoginProperties) TrackResult {
	return f.IdentifyThenTrack(ctx, userID, traits, EventUserLoggedIn, &Properties{
		Category: "auth",
		Label:    props.Method,
		Extra:    map[string]any{"method": props.Method},
	})
}

// TrackLogout records the logout event, then clears the user association.
func (f *Facade) TrackLogout(ctx context.Context) TrackResult {
	res := f.Track(ctx, EventUserLoggedOut, &Properties{Category: "auth"})
	f.Reset(ctx)
	return res
}

// TrackProfileUpdated records a profile update with the changed field names.
func (f *Facade) TrackProfileUpdated(ctx context.Context, props ProfileUpdateProperties) TrackResult {
	return f.Track(ctx, EventProfileUpdated, &Properties{
		Category: "settings",
		Extra:    map[string]any{"fields": strings.Join(props.Fields, ",")},
	})
}

// TrackFormSubmitted records a generic form submission under the normalized
// event name.
func (f *Facade) TrackFormSubmitted(ctx context.Context, formName string, props *Properties) TrackResult {
	return f.Track(ctx, FormSubmittedEvent(formName), props)
}
