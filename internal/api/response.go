// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package api provides the relay HTTP surface using Chi router. Browser
// clients without a direct vendor integration POST events here; the server
// forwards them to the resolved provider's ingestion API.
package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tracklight/tracklight/internal/logging"
)

// Error codes returned in APIError.Code.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// APIError is the error body for malformed requests. Tracking outcomes are
// not errors: a well-formed event that the vendor rejects still answers 200
// with a failed TrackResult, so browser callers never throw on it.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON serializes v with the shared JSON codec. Serialization failures
// are logged; at that point the response is already committed.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}

// respondError writes a structured error body with the request ID attached.
func respondError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details any) {
	writeJSON(w, statusCode, APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}
