package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/api/routes"
	"fuel-tracker/internal/config"
	"fuel-tracker/internal/repository"
	"fuel-tracker/pkg/cleanup"
	"fuel-tracker/pkg/database"
	"fuel-tracker/pkg/logger"
	"fuel-tracker/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.GinMode)
	gin.SetMode(cfg.GinMode)
	log := logger.For(logger.ComponentApp)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Disconnect(db.Client())

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(cfg.Redis)
		defer redisClient.Close()

		healthStatus := redisClient.HealthCheck()
		if healthStatus.IsConnected {
			log.WithField("address", healthStatus.ConnectionInfo).Info("Redis connected")
		} else {
			log.WithField("error", healthStatus.Error).Warn("Redis connection failed, will retry automatically")
		}
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false // Cannot use credentials with AllowAllOrigins
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	limiter := routes.SetupRoutes(router, db, redisClient, cfg)
	if closer, ok := limiter.(interface{ Close() }); ok {
		defer closer.Close()
	}

	if cfg.CleanupInterval > 0 {
		sweeper := cleanup.NewCleanupService(repository.NewFuelRepository(db), cfg.CleanupInterval)
		go sweeper.Start()
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shut down")
	}
}
