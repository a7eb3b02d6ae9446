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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpAdapter "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http"
	mw "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/websocket"
	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/csvstore"
	"github.com/lorrc/service-desk-analytics/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-analytics/internal/auth"
	"github.com/lorrc/service-desk-analytics/internal/config"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/core/services"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/logging"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	taxonomy, err := config.LoadTaxonomy(cfg.Analytics.TaxonomyFile)
	if err != nil {
		logger.Error("failed to load taxonomy", "path", cfg.Analytics.TaxonomyFile, "error", err)
		os.Exit(1)
	}

	// 3. Initialize the dataset store
	ctx := context.Background()
	repo, pool, err := openDatasetRepository(ctx, cfg, taxonomy, logger)
	if err != nil {
		logger.Error("failed to open dataset store", "source", cfg.Dataset.Source, "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Initialize Rate Limiters
	var generalRateLimiter *mw.RateLimiter
	var generateRateLimiter *mw.RateLimitByKey
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		generateRateLimiter = mw.NewRateLimitByKey(cfg.RateLimit.GenerateRPS, cfg.RateLimit.GenerateBurst)
	}

	// 6. Dependency Injection (Wiring the Hexagon)
	recorder := metrics.Recorder{}
	aggregator := services.NewAggregator(taxonomy, services.AggregatorOptions{
		ImprovementDelta: cfg.Analytics.ImprovementDelta,
	})
	analyticsService := services.NewAnalyticsService(repo, aggregator, recorder, logger, nil)
	datasetService := services.NewDatasetService(repo, analyticsService, hub, taxonomy, recorder, logger, nil)

	// Warm the cache; an empty store is fine until the first generate
	if err := analyticsService.Reload(ctx); err != nil {
		if !errors.Is(err, apperrors.ErrDatasetNotFound) {
			logger.Error("failed to load dataset", "source", repo.Name(), "error", err)
			os.Exit(1)
		}
		logger.Warn("no dataset stored yet; POST /api/v1/dataset/generate to create one",
			"source", repo.Name(),
		)
	}

	errorHandler := httpAdapter.NewErrorHandler(logger)
	analyticsHandler := httpAdapter.NewAnalyticsHandler(analyticsService, errorHandler, logger)
	datasetHandler := httpAdapter.NewDatasetHandler(datasetService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(repo, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders: []string{mw.RequestIDHeader, "Content-Disposition"},
		MaxAge:         cfg.CORS.MaxAge,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check and scrape endpoints stay outside /api/v1
	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{Registry: metrics.Registry}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		analyticsHandler.RegisterRoutes(r)

		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			if generateRateLimiter != nil {
				r.Use(generateRateLimiter.OperatorMiddleware)
			}
			r.Route("/dataset", datasetHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "dataset_source", repo.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	hub.Stop()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

// openDatasetRepository returns the configured store. The pool is nil for
// the CSV store.
func openDatasetRepository(
	ctx context.Context,
	cfg *config.Config,
	taxonomy domain.Taxonomy,
	logger *slog.Logger,
) (ports.DatasetRepository, *pgxpool.Pool, error) {
	if cfg.Dataset.Source == config.DatasetSourceCSV {
		logger.Info("using csv dataset", "path", cfg.Dataset.CSVPath)
		return csvstore.NewStore(cfg.Dataset.CSVPath, taxonomy), nil, nil
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("database connection established")

	return postgres.NewDatasetRepository(pool, taxonomy), pool, nil
}
