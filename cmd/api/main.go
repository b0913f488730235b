package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer/factory"
	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer/landmark"
	"github.com/saturnino-fabrica-de-software/sereno/internal/analyzer/pixel"
	"github.com/saturnino-fabrica-de-software/sereno/internal/api"
	"github.com/saturnino-fabrica-de-software/sereno/internal/config"
	"github.com/saturnino-fabrica-de-software/sereno/internal/detect"
	"github.com/saturnino-fabrica-de-software/sereno/internal/probe"
	"github.com/saturnino-fabrica-de-software/sereno/internal/service"
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

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Sereno API",
		slog.String("environment", cfg.Environment),
		slog.String("provider", cfg.ProviderType),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Remote inference provider
	remote, err := factory.NewRemote(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create remote provider: %w", err)
	}

	// Local fallbacks: landmark geometry first, pixel heuristics last
	mirrors := cfg.CascadeMirrors
	if len(mirrors) == 0 {
		mirrors = landmark.DefaultMirrors
	}
	loader := landmark.NewLoader(mirrors, logger)
	landmarkAnalyzer := landmark.NewAnalyzer(loader, logger)
	pixelAnalyzer := pixel.NewAnalyzer()

	// Probe the backend once per process; on failure the landmark models are
	// prewarmed so the first fallback detection does not pay the download.
	prober := probe.New(remote.Checker, logger, loader.Prewarm)

	orchestrator := detect.NewOrchestrator(
		prober,
		remote.Analyzer,
		[]analyzer.StressAnalyzer{landmarkAnalyzer, pixelAnalyzer},
		logger,
	)

	var metricsSource service.MetricsSource
	if remote.Client != nil {
		metricsSource = remote.Client
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		DB:            pool,
		Orchestrator:  orchestrator,
		Prober:        prober,
		MetricsSource: metricsSource,
		Config:        cfg,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
