// ABOUTME: Entry point for the patient journey backend service
// ABOUTME: Wires records API auth, document discovery, and summarization behind an HTTP API

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicflow/patient-journey/backend/config"
	"github.com/clinicflow/patient-journey/backend/handlers"
	"github.com/clinicflow/patient-journey/backend/logger"
	"github.com/clinicflow/patient-journey/backend/middleware"
	"github.com/clinicflow/patient-journey/backend/services"
)

func main() {
	// Initialize structured logging
	logCloser := logger.Init()
	defer logCloser.Close()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	creds, err := services.NewCredentials(cfg.EkaAPIKey, cfg.EkaClientID, cfg.EkaClientSecret, cfg.EkaUserToken)
	if err != nil {
		slog.Error("Invalid records API credentials", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting Patient Journey Backend")
	slog.Info("Records API configured", "url", cfg.EkaBaseURL, "trusted_doc_domain", cfg.TrustedDocDomain)
	if cfg.EkaAllProxy != "" {
		slog.Info("Records API proxy configured")
	}

	transport := services.NewUpstreamTransport(cfg.EkaAllProxy)
	upstream := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}

	tokens := services.NewTokenManager(cfg.EkaBaseURL, creds)
	tokens.SetHTTPClient(upstream)

	records := services.NewRecordsClient(cfg.EkaBaseURL, tokens)
	records.SetHTTPClient(upstream)

	fetcher := services.NewDocumentFetcher(tokens, cfg.TrustedDocDomain)
	fetcher.SetHTTPClient(&http.Client{Timeout: 60 * time.Second, Transport: transport})

	backend := services.NewSummaryBackend(services.BackendConfig{
		Provider:      cfg.SummaryProvider,
		GoogleAPIKey:  cfg.GoogleAPIKey,
		GeminiModel:   cfg.ModelName,
		GeminiBaseURL: cfg.GeminiBaseURL,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	})

	orchestrator := services.NewOrchestrator(records, fetcher, backend, services.OrchestratorConfig{
		DemoMode:            cfg.DemoMode,
		SummaryTimeout:      cfg.SummaryTimeoutDuration(),
		DownloadConcurrency: cfg.DownloadConcurrency,
		ListingCacheTTL:     cfg.ListingCacheTTLDuration(),
	})
	defer orchestrator.Close()

	slog.Info("Summarization configured",
		"provider", cfg.SummaryProvider,
		"backend", orchestrator.BackendName(),
		"demo_mode", cfg.DemoMode,
		"timeout", cfg.SummaryTimeoutDuration(),
	)
	if cfg.ListingCacheTTL > 0 {
		slog.Info("Listing cache initialized", "ttl", cfg.ListingCacheTTLDuration())
	}

	h := handlers.NewHandler(cfg, orchestrator)

	var limiter *middleware.SummaryLimiter
	if cfg.RateLimitEnabled {
		limiter = middleware.NewSummaryLimiter(cfg.RateLimitSummary, time.Minute)
		slog.Info("Rate limiting enabled", "summary_per_minute", cfg.RateLimitSummary)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, limiter, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
