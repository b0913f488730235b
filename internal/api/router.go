package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/sereno/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/sereno/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/sereno/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/sereno/internal/cache"
	"github.com/saturnino-fabrica-de-software/sereno/internal/config"
	"github.com/saturnino-fabrica-de-software/sereno/internal/detect"
	"github.com/saturnino-fabrica-de-software/sereno/internal/metrics"
	"github.com/saturnino-fabrica-de-software/sereno/internal/probe"
	"github.com/saturnino-fabrica-de-software/sereno/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/sereno/internal/repository"
	"github.com/saturnino-fabrica-de-software/sereno/internal/service"
)

type Dependencies struct {
	DB            *pgxpool.Pool
	Orchestrator  *detect.Orchestrator
	Prober        *probe.Prober
	MetricsSource service.MetricsSource
	Config        *config.Config
}

type Router struct {
	app              *fiber.App
	logger           *slog.Logger
	deps             *Dependencies
	aggregator       *metrics.Aggregator
	cancelAggregator context.CancelFunc
	cancelCleanup    context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Sereno API",
		BodyLimit:    16 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-User-ID",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	var pinger handler.Pinger
	var backend handler.BackendStatus
	if r.deps != nil {
		if r.deps.DB != nil {
			pinger = r.deps.DB
		}
		if r.deps.Prober != nil {
			backend = r.deps.Prober
		}
	}
	healthHandler := handler.NewHealthHandler(pinger, backend)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group
	v1 := r.app.Group("/v1")
	v1.Use(middleware.Identity())

	// Only configure data-backed routes if dependencies were provided
	if r.deps != nil {
		scanRepo := repository.NewScanRepository(r.deps.DB)
		limiter := ratelimit.NewRateLimiter(r.deps.DB, time.Minute)
		pgCache := cache.NewPGCache(r.deps.DB)

		detectionService := service.NewDetectionService(
			r.deps.Orchestrator,
			scanRepo,
			limiter,
			pgCache,
			r.deps.MetricsSource,
			r.logger,
		)
		if r.deps.Config != nil {
			detectionService = detectionService.
				WithRateLimit(r.deps.Config.RateLimitPerMinute).
				WithMetricsTTL(r.deps.Config.ModelMetricsTTL)
		}

		detectHandler := handler.NewDetectHandler(detectionService, r.logger)

		v1.Post("/detect", detectHandler.Detect)
		v1.Get("/history", detectHandler.History)
		v1.Get("/trends", detectHandler.Trends)
		v1.Get("/scans/:id/similar", detectHandler.Similar)
		v1.Get("/model-metrics", detectHandler.ModelMetrics)

		// Daily rollup worker
		rollupInterval := time.Hour
		if r.deps.Config != nil && r.deps.Config.MetricsRollupInterval > 0 {
			rollupInterval = r.deps.Config.MetricsRollupInterval
		}
		metricsRepo := metrics.NewRepository(r.deps.DB)
		r.aggregator = metrics.NewAggregator(metricsRepo, r.logger, rollupInterval)
		aggCtx, aggCancel := context.WithCancel(context.Background())
		r.cancelAggregator = aggCancel
		go r.aggregator.Start(aggCtx)

		// Hourly cleanup of expired cache entries and stale rate counters
		cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
		r.cancelCleanup = cleanupCancel
		go r.runCleanup(cleanupCtx, pgCache, limiter)
	}
}

func (r *Router) runCleanup(ctx context.Context, pgCache *cache.PGCache, limiter *ratelimit.RateLimiter) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := pgCache.CleanupExpired(ctx); err != nil {
				r.logger.Error("cache cleanup failed", "error", err)
			} else if n > 0 {
				r.logger.Debug("expired cache entries removed", "count", n)
			}

			if n, err := limiter.CleanupExpired(ctx); err != nil {
				r.logger.Error("rate limit cleanup failed", "error", err)
			} else if n > 0 {
				r.logger.Debug("stale rate limit counters removed", "count", n)
			}
		}
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelAggregator != nil {
		r.cancelAggregator()
	}

	if r.cancelCleanup != nil {
		r.cancelCleanup()
	}

	return r.app.Shutdown()
}
