// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package servertrack sends analytics events to the vendor's ingestion API
// directly from the server, for events that have no browser session (stripe
// webhooks, cron jobs, queue workers). It resolves the same provider as the
// in-session path but speaks each vendor's server protocol:
//
//   - GA4: Measurement Protocol (requires the server-only api_secret)
//   - PostHog: the public capture endpoint
//   - Plausible: the events API
//
// The console provider and the disabled state answer locally; no network
// call is made. Server-side tracking is consent-exempt by contract: callers
// only invoke it for billing and lifecycle events with an established lawful
// basis.
package servertrack

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tracklight/tracklight/internal/analytics"
	"github.com/tracklight/tracklight/internal/config"
	"github.com/tracklight/tracklight/internal/metrics"
)

// Vendor ingestion endpoints. ga4Endpoint is absolute (the Measurement
// Protocol host is fixed); PostHog and Plausible paths are joined onto the
// configured host.
const (
	defaultGA4Endpoint = "https://www.google-analytics.com/mp/collect"
	posthogCapturePath = "/capture/"
	plausibleEventPath = "/api/event"
)

// RequestContext carries client attribution forwarded from an inbound HTTP
// request, so vendor dashboards attribute the event to the end user rather
// than to the server's own address.
type RequestContext struct {
	IP        string
	UserAgent string
	Referrer  string
}

// FromRequest extracts client attribution from an inbound request. The
// client IP honors X-Forwarded-For (first hop) and X-Real-IP before falling
// back to the socket address.
func FromRequest(r *http.Request) *RequestContext {
	return &RequestContext{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Options describes one server-side event.
type Options struct {
	// Event is the event name, snake_case past-tense like the in-session
	// catalog.
	Event string

	// UserID is the known user, if any.
	UserID string

	// AnonymousID stands in when no user is known (e.g. a pre-signup
	// webhook). Generated when both IDs are empty.
	AnonymousID string

	// Properties is the free-form event payload.
	Properties map[string]any

	// Context carries client attribution when the event originated from an
	// inbound request.
	Context *RequestContext
}

// Tracker sends events to the resolved provider's ingestion API. Safe for
// concurrent use. The zero provider states (console, disabled) are valid and
// answer every call locally with success.
type Tracker struct {
	cfg      *config.Config
	kind     analytics.ProviderKind
	resolved bool
	logger   zerolog.Logger

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[int]
	limiter *rate.Limiter

	// ga4Endpoint is settable in tests; the other vendors' endpoints derive
	// from their configured hosts.
	ga4Endpoint string
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) TrackerOption {
	return func(t *Tracker) { t.client = c }
}

// WithRateLimit replaces the default politeness limit on outbound vendor
// requests (default 50 rps, burst 100).
func WithRateLimit(l *rate.Limiter) TrackerOption {
	return func(t *Tracker) { t.limiter = l }
}

// NewTracker creates a Tracker against the provider resolved from cfg.
func NewTracker(cfg *config.Config, logger zerolog.Logger, opts ...TrackerOption) *Tracker {
	kind, resolved := analytics.Resolve(cfg)

	t := &Tracker{
		cfg:      cfg,
		kind:     kind,
		resolved: resolved,
		logger:   logger.With().Str("component", "servertrack").Logger(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Limit(50), 100),
		ga4Endpoint: defaultGA4Endpoint,
	}
	for _, opt := range opts {
		opt(t)
	}

	if resolved && kind != analytics.ProviderConsole {
		t.breaker = newIngestBreaker("vendor-ingest-" + string(kind))
	}
	return t
}

// Provider returns the resolved provider kind, or empty when disabled.
func (t *Tracker) Provider() analytics.ProviderKind {
	if !t.resolved {
		return ""
	}
	return t.kind
}

// Track sends one event to the resolved provider's ingestion API.
//
// Console and disabled states log locally and report success: callers on
// webhook paths must never branch on whether analytics is configured.
// Vendor rejections (non-2xx) and transport failures come back as failed
// results, never as panics.
func (t *Tracker) Track(ctx context.Context, opts Options) analytics.TrackResult {
	if opts.Event == "" {
		return analytics.Fail("event name is required")
	}

	if !t.resolved {
		metrics.RecordIngestionSkipped("disabled")
		t.logger.Debug().Str("event", opts.Event).Msg("Analytics disabled, event dropped")
		return analytics.OK()
	}

	switch t.kind {
	case analytics.ProviderConsole:
		metrics.RecordIngestionSkipped(string(analytics.ProviderConsole))
		t.logger.Info().
			Str("event", opts.Event).
			Str("user_id", opts.UserID).
			Interface("properties", opts.Properties).
			Msg("Server event")
		return analytics.OK()
	case analytics.ProviderGA4:
		return t.sendGA4(ctx, opts)
	case analytics.ProviderPostHog:
		return t.sendPostHog(ctx, opts)
	case analytics.ProviderPlausible:
		return t.sendPlausible(ctx, opts)
	default:
		return analytics.Failf("unsupported provider: %s", t.kind)
	}
}

// PageView sends a server-observed page view (e.g. from an SSR handler),
// translated to each vendor's native pageview event. name is the logical
// page name and may be empty.
func (t *Tracker) PageView(ctx context.Context, name, url string, opts Options) analytics.TrackResult {
	props := make(map[string]any, len(opts.Properties)+2)
	for k, v := range opts.Properties {
		props[k] = v
	}
	opts.Properties = props

	switch t.kind {
	case analytics.ProviderPostHog:
		opts.Event = "$pageview"
		props["$current_url"] = url
		if name != "" {
			props["title"] = name
		}
	case analytics.ProviderPlausible:
		opts.Event = "pageview"
		props["url"] = url
		if name != "" {
			props["page_name"] = name
		}
	default:
		opts.Event = "page_view"
		props["page_location"] = url
		if name != "" {
			props["page_title"] = name
		}
	}
	return t.Track(ctx, opts)
}

// ga4Payload is the Measurement Protocol request body.
type ga4Payload struct {
	ClientID string     `json:"client_id"`
	UserID   string     `json:"user_id,omitempty"`
	Events   []ga4Event `json:"events"`
}

type ga4Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

func (t *Tracker) sendGA4(ctx context.Context, opts Options) analytics.TrackResult {
	// The Measurement Protocol authenticates with a server-only secret that
	// is never shipped to browsers. Fail before any network activity.
	if t.cfg.GA4.APISecret == "" {
		metrics.RecordIngestion(string(analytics.ProviderGA4), 0, false)
		return analytics.Fail("GA4 api_secret not configured for server-side tracking")
	}

	clientID := opts.AnonymousID
	if clientID == "" {
		clientID = opts.UserID
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}

	payload := ga4Payload{
		ClientID: clientID,
		UserID:   opts.UserID,
		Events: []ga4Event{{
			Name:   opts.Event,
			Params: opts.Properties,
		}},
	}

	url := fmt.Sprintf("%s?measurement_id=%s&api_secret=%s",
		t.ga4Endpoint, t.cfg.GA4.MeasurementID, t.cfg.GA4.APISecret)
	return t.post(ctx, analytics.ProviderGA4, url, payload, nil)
}

// posthogPayload is the capture endpoint request body.
type posthogPayload struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

func (t *Tracker) sendPostHog(ctx context.Context, opts Options) analytics.TrackResult {
	// The capture endpoint silently accepts any api_key shape; an empty one
	// would report success while attributing nothing. Fail before any
	// network activity instead.
	if t.cfg.PostHog.APIKey == "" {
		metrics.RecordIngestion(string(analytics.ProviderPostHog), 0, false)
		return analytics.Fail("PostHog api_key not configured for server-side tracking")
	}

	distinctID := opts.UserID
	if distinctID == "" {
		distinctID = opts.AnonymousID
	}
	if distinctID == "" {
		distinctID = uuid.NewString()
	}

	props := make(map[string]any, len(opts.Properties)+4)
	for k, v := range opts.Properties {
		props[k] = v
	}
	props["$lib"] = "tracklight-server"
	if opts.Context != nil {
		if opts.Context.IP != "" {
			props["$ip"] = opts.Context.IP
		}
		if opts.Context.UserAgent != "" {
			props["$useragent"] = opts.Context.UserAgent
		}
		if opts.Context.Referrer != "" {
			props["$referrer"] = opts.Context.Referrer
		}
	}

	payload := posthogPayload{
		APIKey:     t.cfg.PostHog.APIKey,
		Event:      opts.Event,
		DistinctID: distinctID,
		Properties: props,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	return t.post(ctx, analytics.ProviderPostHog, t.cfg.PostHog.Host+posthogCapturePath, payload, nil)
}

// plausiblePayload is the events API request body.
type plausiblePayload struct {
	Name   string         `json:"name"`
	URL    string         `json:"url"`
	Domain string         `json:"domain"`
	Props  map[string]any `json:"props,omitempty"`
}

func (t *Tracker) sendPlausible(ctx context.Context, opts Options) analytics.TrackResult {
	// The events API rejects events without a site domain; fail before any
	// network activity.
	if t.cfg.Plausible.Domain == "" {
		metrics.RecordIngestion(string(analytics.ProviderPlausible), 0, false)
		return analytics.Fail("Plausible domain not configured for server-side tracking")
	}

	// The events API requires a url; server events without one are pinned to
	// the site root.
	url, _ := opts.Properties["url"].(string)
	props := make(map[string]any, len(opts.Properties))
	for k, v := range opts.Properties {
		if k == "url" {
			continue
		}
		props[k] = v
	}
	if url == "" {
		url = "https://" + t.cfg.Plausible.Domain + "/"
	}

	payload := plausiblePayload{
		Name:   opts.Event,
		URL:    url,
		Domain: t.cfg.Plausible.Domain,
		Props:  props,
	}

	// Plausible reads attribution from headers, not the body.
	headers := make(map[string]string, 2)
	if opts.Context != nil {
		if opts.Context.UserAgent != "" {
			headers["User-Agent"] = opts.Context.UserAgent
		}
		if opts.Context.IP != "" {
			headers["X-Forwarded-For"] = opts.Context.IP
		}
	}

	return t.post(ctx, analytics.ProviderPlausible, t.cfg.Plausible.Host+plausibleEventPath, payload, headers)
}

// post serializes and delivers one ingestion request through the rate
// limiter and circuit breaker, mapping the outcome onto a TrackResult.
func (t *Tracker) post(ctx context.Context, kind analytics.ProviderKind, url string, payload any, headers map[string]string) analytics.TrackResult {
	body, err := json.Marshal(payload)
	if err != nil {
		metrics.RecordIngestion(string(kind), 0, false)
		return analytics.Failf("failed to marshal %s payload: %v", kind, err)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		metrics.RecordIngestion(string(kind), 0, false)
		return analytics.Failf("rate limit wait aborted: %v", err)
	}

	start := time.Now()
	status, err := t.breaker.Execute(func() (int, error) {
		return t.doPost(ctx, url, body, headers)
	})
	duration := time.Since(start)

	if err != nil {
		metrics.RecordIngestion(string(kind), duration, false)
		t.logger.Warn().Err(err).Str("provider", string(kind)).Msg("Vendor ingestion failed")
		return analytics.Failf("%s ingestion failed: %v", kind, err)
	}
	if status < 200 || status > 299 {
		metrics.RecordIngestion(string(kind), duration, false)
		t.logger.Warn().Int("status", status).Str("provider", string(kind)).Msg("Vendor rejected event")
		return analytics.Failf("%s returned status %d", kind, status)
	}

	metrics.RecordIngestion(string(kind), duration, true)
	return analytics.OK()
}

func (t *Tracker) doPost(ctx context.Context, url string, body []byte, headers map[string]string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create ingestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send ingestion request: %w", err)
	}
	defer resp.Body.Close()

	// A vendor 5xx counts against the circuit breaker; 4xx is a payload
	// problem on our side and must not open the circuit.
	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("vendor returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
