// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracklight/tracklight/internal/config"
)

// Router assembles the relay HTTP surface.
type Router struct {
	cfg     *config.Config
	handler *Handler
}

// NewRouter creates a Router around the given handler.
func NewRouter(cfg *config.Config, handler *Handler) *Router {
	return &Router{
		cfg:     cfg,
		handler: handler,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	// Health endpoints: permissive rate limiting for monitoring probes.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Ingest endpoints: per-IP rate limiting sized for browser traffic.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.rateLimit())
		r.Use(PrometheusMetrics)

		r.Post("/track", router.handler.Track)
		r.Post("/page", router.handler.Page)
	})

	// Prometheus scrape endpoint.
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.cfg.Server.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.LimitByIP(router.cfg.Server.RateLimitReqs, router.cfg.Server.RateLimitWindow)
}
