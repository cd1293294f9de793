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

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/smart-sprinkler/internal/api/http"
	"github.com/i474232898/smart-sprinkler/internal/config"
	"github.com/i474232898/smart-sprinkler/internal/irrigation"
	"github.com/i474232898/smart-sprinkler/internal/metrics"
	"github.com/i474232898/smart-sprinkler/internal/model"
	"github.com/i474232898/smart-sprinkler/internal/scheduler"
	"github.com/i474232898/smart-sprinkler/internal/store"
	"github.com/i474232898/smart-sprinkler/internal/weather"
	"github.com/i474232898/smart-sprinkler/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	metrics.Init()

	// The service cannot make decisions without a model.
	classifier, err := model.Load(cfg.ModelPath)
	if err != nil {
		log.Error("model unavailable", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	var opts []model.Option
	if cfg.ModelSerialize {
		opts = append(opts, model.WithSerializedAccess())
	}
	adapter, err := model.NewAdapter(classifier, opts...)
	if err != nil {
		log.Error("model unavailable", "error", err)
		os.Exit(1)
	}
	engine, err := irrigation.NewEngine(adapter)
	if err != nil {
		log.Error("failed to build decision engine", "error", err)
		os.Exit(1)
	}
	log.Info("model loaded", "name", classifier.Name, "version", classifier.Version, "threshold", classifier.Threshold)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Providers with resilience (backoff + circuit breaker).
	provs := []weather.Provider{providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	if cfg.GeocoderAPIKey != "" {
		provs = append(provs, providers.NewOpenMeteoProvider(httpClient, cfg.GeocoderAPIKey))
	}

	service := weather.NewService(memStore, provs, cfg.MaxStaleness, log)

	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, service, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "smart-sprinkler",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "smart-sprinkler",
			"model":   classifier.Name,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, engine, service, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("listening", "port", cfg.Port, "providers", len(provs), "locations", len(cfg.Locations))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
