// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tracklight/tracklight/internal/servertrack"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler serves the relay endpoints.
type Handler struct {
	tracker *servertrack.Tracker
	started time.Time
}

// NewHandler creates a Handler around the given tracker.
func NewHandler(tracker *servertrack.Tracker) *Handler {
	return &Handler{
		tracker: tracker,
		started: time.Now(),
	}
}

// TrackRequest is the body for POST /api/v1/track.
type TrackRequest struct {
	Event       string         `json:"event" validate:"required,max=200"`
	UserID      string         `json:"user_id,omitempty" validate:"max=200"`
	AnonymousID string         `json:"anonymous_id,omitempty" validate:"max=200"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// PageRequest is the body for POST /api/v1/page.
type PageRequest struct {
	URL         string         `json:"url" validate:"required,url,max=2000"`
	Name        string         `json:"name,omitempty" validate:"max=200"`
	UserID      string         `json:"user_id,omitempty" validate:"max=200"`
	AnonymousID string         `json:"anonymous_id,omitempty" validate:"max=200"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Track handles POST /api/v1/track. A well-formed request always answers
// 200; the body carries the TrackResult, failed or not, so browser callers
// can fire-and-forget.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.tracker.Track(r.Context(), servertrack.Options{
		Event:       req.Event,
		UserID:      req.UserID,
		AnonymousID: req.AnonymousID,
		Properties:  req.Properties,
		Context:     servertrack.FromRequest(r),
	})
	writeJSON(w, http.StatusOK, result)
}

// Page handles POST /api/v1/page.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.tracker.PageView(r.Context(), req.Name, req.URL, servertrack.Options{
		UserID:      req.UserID,
		AnonymousID: req.AnonymousID,
		Properties:  req.Properties,
		Context:     servertrack.FromRequest(r),
	})
	writeJSON(w, http.StatusOK, result)
}

// decode parses and validates the request body, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "Request validation failed", err.Error())
		return false
	}
	return true
}

// healthStatus is the body for the health endpoints.
type healthStatus struct {
	Status        string `json:"status"`
	Provider      string `json:"provider,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthLive handles GET /api/v1/health/live. Process liveness only.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{
		Status:        "alive",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// HealthReady handles GET /api/v1/health/ready. Reports the resolved
// provider; a deliberately disabled configuration is still ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	provider := h.tracker.Provider()
	status := "ready"
	if provider == "" {
		status = "ready (analytics disabled)"
	}
	writeJSON(w, http.StatusOK, healthStatus{
		Status:        status,
		Provider:      string(provider),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}
