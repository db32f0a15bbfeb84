package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-widget/internal/api/http"
	"github.com/i474232898/weather-widget/internal/config"
	"github.com/i474232898/weather-widget/internal/icons"
	"github.com/i474232898/weather-widget/internal/logging"
	"github.com/i474232898/weather-widget/internal/scheduler"
	"github.com/i474232898/weather-widget/internal/suggest"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/weather/providers"
	"github.com/i474232898/weather-widget/internal/widget"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	provider := newProvider(cfg, zlog)

	// Presentation state machine; loads the default city right away.
	ctrl := widget.NewController(provider, widget.Options{
		DefaultCity:  cfg.DefaultCity,
		ErrorTTL:     cfg.ErrorTTL,
		FetchTimeout: cfg.HTTPTimeout * 2,
		Icons:        icons.NewResolver(),
		Logger:       zlog,
	})
	if err := ctrl.Start(); err != nil {
		zlog.Fatal("failed to start widget", zap.Error(err))
	}
	defer ctrl.Close()

	sched := scheduler.New(cfg.AutoRefreshInterval, ctrl, zlog)
	if err := sched.Start(); err != nil {
		zlog.Error("failed to start scheduler", zap.Error(err))
		ctrl.Close()
		_ = zlog.Sync()
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-widget",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-widget",
		})
	})

	httpapi.RegisterRoutes(app, ctrl, suggest.NewEngine(nil))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Warn("fiber server stopped", zap.Error(err))
		}
	}()
	zlog.Info("listening", zap.String("port", cfg.Port), zap.String("provider", provider.Name()))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Warn("error during shutdown", zap.Error(err))
	}
}

func newProvider(cfg *config.AppConfig, zlog *zap.Logger) weather.Provider {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var p weather.Provider
	switch cfg.Provider {
	case config.ProviderOpenWeather:
		p = providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
			APIKey:     cfg.OpenWeatherAPIKey,
			BaseURL:    cfg.OpenWeatherURL,
			MaxRetries: cfg.MaxRetries,
		}, zlog)
	case config.ProviderWeatherAPI:
		p = providers.NewWeatherAPIProvider(httpClient, providers.WeatherAPIConfig{
			APIKey:     cfg.WeatherAPIKey,
			BaseURL:    cfg.WeatherAPIURL,
			MaxRetries: cfg.MaxRetries,
		}, zlog)
	case config.ProviderOpenMeteo:
		p = providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoConfig{
			MaxRetries: cfg.MaxRetries,
		}, zlog)
	default:
		p = providers.NewMockProvider(nil)
	}
	return providers.NewRateLimitedProvider(p, cfg.RateLimitRPS, cfg.RateLimitBurst, zlog)
}
