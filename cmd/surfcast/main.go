package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/surfcast/internal/api/http"
	"github.com/i474232898/surfcast/internal/config"
	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/forecast/providers"
	"github.com/i474232898/surfcast/internal/observability"
	"github.com/i474232898/surfcast/internal/registry"
	"github.com/i474232898/surfcast/internal/scheduler"
	"github.com/i474232898/surfcast/internal/spots"
	"github.com/i474232898/surfcast/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(promRegistry)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Place resolver, cached.
	var resolver forecast.GeoResolver
	switch cfg.Geocoder {
	case "google":
		resolver = providers.NewGoogleResolver(cfg.GoogleAPIKey)
	default:
		resolver = providers.NewGeocodingClient(cfg.GeocodingAPIURL, cfg.GeocodeLanguage, cfg.GeocodeMaxRetries, httpClient, metrics)
	}
	if cfg.GeocodeCacheSize > 0 {
		resolver = providers.NewCachedResolver(resolver, cfg.GeocodeCacheSize, metrics)
	}
	log.Info("geocoder configured", "provider", cfg.Geocoder, "cache_size", cfg.GeocodeCacheSize)

	fetcher := providers.NewFetcher(
		providers.NewMarineClient(cfg.MarineAPIURL, httpClient, metrics),
		providers.NewWeatherClient(cfg.WeatherAPIURL, httpClient, metrics),
	)

	clock := clockwork.NewRealClock()
	seriesStore := store.NewMemoryStore(cfg.SeriesMaxAge, clock)

	// Registry of displayed spots, optionally persisted.
	var repo registry.Repository
	if cfg.RegistryDBPath != "" {
		sqliteRepo, err := registry.OpenSQLiteRepository(cfg.RegistryDBPath)
		if err != nil {
			log.Error("failed to open registry database", "path", cfg.RegistryDBPath, "error", err)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}
	tracker := registry.NewTracker(registry.New(cfg.BuiltinSpots()), repo, log)
	if err := tracker.Load(context.Background()); err != nil {
		log.Error("failed to restore tracked spots", "error", err)
	}

	service := spots.NewService(resolver, fetcher, seriesStore, tracker, spots.Options{
		SuggestLimit: cfg.SuggestLimit,
		Clock:        clock,
		Logger:       log,
		Metrics:      metrics,
	})

	// Scheduler that periodically refreshes the built-in spots.
	sched := scheduler.New(service, cfg.FetchInterval, 2*cfg.HTTPTimeout, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "surfcast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "surfcast",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
