// WaPOR STAC proxy server entry point
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/api"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/backend"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/metrics"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/translate"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logger
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting WaPOR STAC proxy",
		"version", cfg.STAC.Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Load per-cube metadata overrides
	metadata, err := config.LoadMetadata(cfg.Catalog.MetadataDir)
	if err != nil {
		logger.Warn("failed to load cube metadata, using catalog metadata only",
			"dir", cfg.Catalog.MetadataDir,
			"error", err,
		)
		metadata = config.NewMetadataRegistry()
	}
	logger.Info("loaded cube metadata", "count", metadata.Count())

	var provider *metrics.Provider
	if cfg.Metrics.Enabled {
		provider = metrics.New()
	}

	// Create WaPOR client
	client := wapor.NewClient(cfg.WaPOR.BaseURL, cfg.WaPOR.Workspace, cfg.WaPOR.Timeout).
		WithLogger(logger).
		WithDescriptorCache(cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	if provider != nil {
		client.WithMetrics(metrics.NewUpstream(provider.Registerer()))
	}
	if cfg.WaPOR.APIKey != "" {
		client.WithSession(wapor.NewSession(client, cfg.WaPOR.APIKey))
	}
	logger.Info("using WaPOR backend",
		"base_url", cfg.WaPOR.BaseURL,
		"workspace", cfg.WaPOR.Workspace,
		"downloads", cfg.DownloadsEnabled(),
	)

	translator := translate.NewTranslator(cfg, metadata, logger)
	b := backend.NewWaPORBackend(client, translator, cfg, logger)

	handlers := api.NewHandlers(cfg, b, logger)
	router := api.NewRouter(handlers, logger, provider)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
