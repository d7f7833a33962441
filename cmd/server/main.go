// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Command server runs the Tracklight relay: an HTTP surface that accepts
// analytics events from browser clients and forwards them to the resolved
// provider's ingestion API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tracklight/tracklight/internal/api"
	"github.com/tracklight/tracklight/internal/config"
	"github.com/tracklight/tracklight/internal/logging"
	"github.com/tracklight/tracklight/internal/servertrack"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Tracklight relay")

	tracker := servertrack.NewTracker(cfg, logging.Logger())
	if provider := tracker.Provider(); provider != "" {
		logging.Info().
			Str("provider", string(provider)).
			Str("environment", cfg.Server.Environment).
			Msg("Configuration loaded")
	} else {
		logging.Warn().
			Str("environment", cfg.Server.Environment).
			Msg("Configuration loaded (no analytics provider, events will be dropped)")
	}

	router := api.NewRouter(cfg, api.NewHandler(tracker))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logging.Info().Msg("Tracklight relay stopped")
}
