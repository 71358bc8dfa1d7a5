// cmd/gateway/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"restfront-gateway/internal/common/config"
	"restfront-gateway/internal/common/database"
	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/common/observability"
	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/registry"
	"restfront-gateway/internal/gateway/server"
	"restfront-gateway/internal/services/example"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.WithError(err).Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	log.Info("Starting gateway...", nil)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")

	if err != nil {
		log.WithError(err).Warn("redis unavailable, example service runs uncached", nil)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info("Redis connected successfully", nil)
	}

	// --- Assemble registry, taxonomy and mapping store ---
	errors := errorlist.NewManager(cfg.Gateway.DefaultErrorSource)
	reg := registry.New()

	var cache *redis.Client
	if redisClient != nil {
		cache = redisClient.Client
	}
	exampleService := example.NewService(example.LoadConfig(), cache, errors, log)
	if err := exampleService.Register(reg); err != nil {
		log.WithError(err).Error("example service registration failed", nil)
		os.Exit(1)
	}

	loader := mapping.NewLoader(log)
	loader.Register(example.BundleLocation, example.Bundle())

	srv, err := server.New(server.Params{
		Config:   *cfg,
		Logger:   log,
		Registry: reg,
		Errors:   errors,
		Loader:   loader,

		Observability: obs,
	})
	if err != nil {
		log.WithError(err).Error("gateway assembly failed", nil)
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Error("gateway server failed", nil)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping gateway...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error during shutdown", nil)
	}

	log.Info("Gateway stopped gracefully", nil)
}
