// Sticker backend - sells custom-priced, custom-configured stickers by
// proxying order and inventory operations to the Shopify Admin API.
// Designed for Cloud Run deployment with stateless operation.
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

	"github.com/go-chi/cors"

	"sticker-backend/internal/cleanup"
	"sticker-backend/internal/config"
	"sticker-backend/internal/handler"
	"sticker-backend/internal/middleware"
	"sticker-backend/internal/shopify"
	"sticker-backend/internal/sticker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Bootstrap logger from ambient env, only for config-load errors;
	// the real logger is rebuilt from loaded config below.
	logger := initLogger(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT"))

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = initLogger(cfg.LogLevel, cfg.Environment)

	logger.Info("configuration loaded",
		slog.String("store_domain", cfg.Store.Domain),
		slog.Int64("host_product_id", cfg.HostProductID),
		slog.Int("ttl_hours", cfg.TTLHours),
		slog.String("environment", cfg.Environment),
	)

	// Platform client
	client, err := shopify.New(shopify.Config{
		StoreDomain: cfg.Store.Domain,
		AccessToken: cfg.Store.AccessToken,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating shopify client: %w", err)
	}

	// Services
	factory := sticker.NewFactory(client, cfg.TTLHours, logger)
	sweeper := cleanup.NewSweeper(client, cfg.SKUPrefix, logger)

	h := handler.New(handler.Options{
		Factory:       factory,
		Sweeper:       sweeper,
		API:           client,
		HostProductID: cfg.HostProductID,
		DefaultTTL:    cfg.TTLHours,
		WebhookSecret: cfg.Store.WebhookSecret,
		Logger:        logger,
	})

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// The storefront theme calls this API cross-origin, so CORS is wide
	// open by contract: any origin, simple methods, JSON bodies.
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	// Apply middleware chain: recovery → request id → logging → cors → handler.
	// Recovery must be outermost to catch panics from the rest of the chain.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		corsHandler,
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger for the given level and
// environment. Production uses JSON format for Cloud Logging
// compatibility, development uses text format for readability.
func initLogger(level, environment string) *slog.Logger {
	lvl := slog.LevelInfo
	if level == "debug" {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: lvl,
		// Add source location in debug mode
		AddSource: lvl == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
