package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/makkenzo/checkout-service-api/internal/billing"
	"github.com/makkenzo/checkout-service-api/internal/config"
	"github.com/makkenzo/checkout-service-api/internal/handler"
	"github.com/makkenzo/checkout-service-api/internal/handler/middleware"
	"github.com/makkenzo/checkout-service-api/internal/ratelimit"
	"github.com/makkenzo/checkout-service-api/internal/service"
	"github.com/makkenzo/checkout-service-api/internal/storage/postgres"
	"github.com/makkenzo/checkout-service-api/internal/storage/redis"
	"github.com/makkenzo/checkout-service-api/internal/worker"
	"github.com/makkenzo/checkout-service-api/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.RunMigrations(cfg.Database.URL, appLogger); err != nil {
		sugarLogger.Fatalf("Failed to run database migrations: %v", err)
	}

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	licenseRepo := postgres.NewLicenseRepository(dbPool, appLogger)
	eventRepo := postgres.NewWebhookEventRepository(dbPool, appLogger)

	gateway := billing.NewStripeGateway(&cfg.Stripe, cfg.Server.PublicDomain, appLogger)

	licenseService := service.NewLicenseService(licenseRepo, appLogger)
	webhookService := service.NewWebhookService(licenseRepo, eventRepo, appLogger)

	var limitStore ratelimit.Store
	if cfg.RateLimit.Store == "memory" {
		limitStore = ratelimit.NewMemoryStore()
	} else {
		limitStore = ratelimit.NewRedisStore(redisClient)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Checkout: handler.NewCheckoutHandler(gateway, appLogger),
		Webhook:  handler.NewWebhookHandler(webhookService, cfg.Stripe.WebhookSecret, appLogger),
		License:  handler.NewLicenseHandler(licenseService, appLogger),
		Health:   handler.NewHealthHandler(dbPool, redisClient, appLogger),
		Auth: &middleware.SharedCredential{
			Username:     cfg.Admin.Username,
			PasswordHash: cfg.Admin.PasswordHash,
		},
		LimitStore:   limitStore,
		Limits:       cfg.RateLimit,
		PublicDomain: cfg.Server.PublicDomain,
		StaticDir:    cfg.Server.StaticDir,
		Logger:       appLogger,
	})

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, eventRepo, appLogger); err != nil {
			sugarLogger.Error("Asynq worker failed", zap.Error(err))
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else if errors.Is(waitErr, http.ErrServerClosed) {
			sugarLogger.Info("Shutdown reason: HTTP server closed normally.")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
