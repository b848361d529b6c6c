package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"dataco-dashboard/internal/config"
	"dataco-dashboard/internal/middleware"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/server"
	"dataco-dashboard/internal/services"
)

const datasetLoadTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application", "version", "1.0.0", "dataset", cfg.Dataset.CSVFile)

	analytics := services.NewAnalytics(logger)
	ctx, cancel := context.WithTimeout(context.Background(), datasetLoadTimeout)
	defer cancel()

	// A missing or unreadable dataset is fatal: nothing can render without it.
	if err := analytics.LoadFromCSV(ctx, cfg.Dataset.CSVFile, cfg.Dataset.Encoding); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(analytics, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Compress(logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
