package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pageza/mealbrowser/config"
	"github.com/pageza/mealbrowser/internal/cache"
	"github.com/pageza/mealbrowser/internal/database"
	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/mealdb"
	"github.com/pageza/mealbrowser/internal/middleware"
	"github.com/pageza/mealbrowser/internal/router"
	"github.com/pageza/mealbrowser/internal/server"
	"github.com/pageza/mealbrowser/internal/service"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Redis is optional; without it cache, sequencer and rate limiter live in process
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logrus.Warnf("Redis unavailable, falling back to in-process state: %v", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	db, err := database.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close(db)
	if err := database.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	client, err := mealdb.NewClient(mealdb.Options{
		BaseURL:  cfg.MealDBURL,
		Timeout:  cfg.MealDBTimeout,
		RPS:      cfg.MealDBRPS,
		Burst:    cfg.MealDBBurst,
		Cache:    newCache(redisClient),
		CacheTTL: cfg.ReferenceCacheTTL,
	})
	if err != nil {
		logrus.Fatalf("Failed to create TheMealDB client: %v", err)
	}

	history := service.NewHistoryService(db)
	browser := service.NewBrowserService(client, newSequencer(redisClient), history)

	handler := router.SetupRouter(router.Dependencies{
		Browser:     browser,
		History:     history,
		DB:          db,
		Limiter:     middleware.NewSearchRateLimiter(redisClient, cfg.RateLimitPerMinute),
		CORSOrigins: cfg.CORSOrigins,
	})

	// Create and start server
	srv := server.New(cfg, handler)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		logrus.Infof("Starting server in %s mode...", config.GetEnvironment())
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			logrus.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		logrus.Infof("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	logrus.Info("Shutting down server...")
	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	}
	logrus.Info("Server stopped")
}

func newCache(client *redis.Client) cache.Cache {
	if client != nil {
		return cache.NewRedisCache(client, "mealbrowser:ref")
	}
	return cache.NewMemoryCache()
}

func newSequencer(client *redis.Client) service.Sequencer {
	if client != nil {
		return service.NewRedisSequencer(client, "mealbrowser:seq", service.DefaultSequencerTTL)
	}
	return service.NewMemorySequencer(service.DefaultSequencerTTL)
}
