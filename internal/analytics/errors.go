// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package analytics

import (
	"errors"
	"fmt"
)

var (
	// errHandleTimeout is returned when a vendor handle does not become
	// available within the adapter's init timeout.
	errHandleTimeout = errors.New("timed out waiting for vendor handle")

	// errNoBootstrap is returned when an adapter that needs a vendor handle
	// was constructed without a handle lookup.
	errNoBootstrap = errors.New("no vendor bootstrap configured")
)

// ErrHandleTimeout reports whether err represents a vendor handle wait
// timeout.
func ErrHandleTimeout(err error) bool {
	return errors.Is(err, errHandleTimeout)
}

// initFailureReason maps an init error onto the metrics failure label.
func initFailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case ErrHandleTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}

// errIncompleteConfig describes a provider that resolved (via explicit
// override) but is missing a required credential.
func errIncompleteConfig(kind ProviderKind, field string) error {
	return fmt.Errorf("%s provider configuration incomplete: missing %s", kind, field)
}
