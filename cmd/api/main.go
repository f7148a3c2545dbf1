package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/facilops/sitepane/internal/adapters/http"
	natsadapter "github.com/facilops/sitepane/internal/adapters/nats"
	"github.com/facilops/sitepane/internal/adapters/postgres"
	"github.com/facilops/sitepane/internal/adapters/valkey"
	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/ports"
	"github.com/facilops/sitepane/internal/core/usecases"
	"github.com/facilops/sitepane/internal/core/viewport"
	"github.com/facilops/sitepane/internal/pkg/config"
	"github.com/facilops/sitepane/internal/pkg/logging"
	"github.com/facilops/sitepane/internal/pkg/metrics"
	"github.com/facilops/sitepane/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("sitepane-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("sitepane-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache. The overlay works without it, reads just skip the cache tier.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var pub ports.EventPublisher
	var natsConn *nats.Conn
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer publisher.Close()
		pub = publisher
		natsConn = publisher.Conn()
	}

	// Repos and use cases
	siteRepo := postgres.NewSiteRepo(db)
	siteSvc := usecases.NewSiteService(siteRepo, cacheSvc, pub)
	overlaySvc := usecases.NewOverlayService(siteSvc, pub, nil, cfg.Gesture.Runtime(), cfg.Viewport.Runtime())

	// Inventory-change broadcasts reload every live session on this instance.
	if natsConn != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			err = sub.SubscribeSitesUpdated(ctx, func(ctx context.Context, ev *domain.SitesUpdatedEvent) error {
				slog.Info("site inventory updated", "count", ev.Count, "source", ev.Source)
				overlaySvc.RefreshAll(ctx)
				return nil
			})
			if err != nil {
				slog.Warn("subscribe sites updated", "error", err)
			}
		}
	}

	// DB pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	deps := &http.Dependencies{
		Sites:   siteSvc,
		Overlay: overlaySvc,
		Gesture: cfg.Gesture.Runtime(),
		Fitter:  viewport.NewFitter(cfg.Viewport.Runtime()),
		NATS:    natsConn,
		DB:      db,
		Cache:   cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Sitepane API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.facilops.io",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
