package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiqai/redaction-gateway/internal/config"
	"github.com/lexiqai/redaction-gateway/internal/detect"
	"github.com/lexiqai/redaction-gateway/internal/observability"
	"github.com/lexiqai/redaction-gateway/internal/session"
	"github.com/lexiqai/redaction-gateway/internal/stt"
	"github.com/lexiqai/redaction-gateway/internal/transport"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("stt_provider", cfg.STTProvider).
		Int("sample_rate", cfg.SampleRate).
		Int("chunk_ms", cfg.ChunkMS).
		Int("holdback_ms", cfg.HoldbackMS).
		Int("stt_window_ms", cfg.STTWindowMS).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Redaction Gateway starting")

	transcriber, err := stt.NewFromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create transcriber")
	}

	detector, err := detect.NewFromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create detector")
	}

	// A self-hosted worker is often started alongside the gateway; report it but don't block on it
	if transcriber.Name() == config.ProviderGRPC {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.STTGRPCTimeout)*time.Second)
		if healthy, err := transcriber.HealthCheck(ctx); err != nil || !healthy {
			logger.Warn().Err(err).Str("addr", cfg.STTGRPCAddr).Msg("Transcription worker not ready yet")
		}
		cancel()
	}

	// Create HTTP server
	mux := http.NewServeMux()

	mux.HandleFunc(cfg.WSPath, transport.HandleRedactWS(session.ConfigFrom(cfg), transcriber, detector))

	mux.HandleFunc("/health", observability.HealthCheckHandler(cfg.AppEnv))
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"transcriber": transcriber.HealthCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// No read/write timeouts: sessions are long-lived WebSocket connections
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s%s", cfg.Port, cfg.WSPath)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
