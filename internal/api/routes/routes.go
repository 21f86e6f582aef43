package routes

import (
	"fuel-tracker/internal/api/handlers"
	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/config"
	"fuel-tracker/internal/repository"
	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/database"
	"fuel-tracker/pkg/jwt"
	"fuel-tracker/pkg/logger"
	"fuel-tracker/pkg/ratelimit"
	"fuel-tracker/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Vehicle     *handlers.VehicleHandler
	Fuel        *handlers.FuelHandler
	Maintenance *handlers.MaintenanceHandler
	Settings    *handlers.SettingsHandler
	Analytics   *handlers.AnalyticsHandler
	Health      *handlers.HealthHandler
}

// Options carries the middleware dependencies. A nil Limiter disables rate
// limiting.
type Options struct {
	JWT        *jwt.JWTUtil
	CookieName string
	Limiter    ratelimit.RateLimiter
}

// SetupRoutes wires repositories, services and handlers against db and
// mounts them on router. redisClient may be nil, which disables caching and
// forces the in-memory rate limiter.
func SetupRoutes(router *gin.Engine, db *mongo.Database, redisClient *redis.Client, cfg *config.Config) ratelimit.RateLimiter {
	log := logger.For(logger.ComponentApp)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewSecurityQuestionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	fuelRepo := repository.NewFuelRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	tx := database.NewTransactor(db)

	jwtUtil := jwt.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiry, cfg.ResetTokenExpiry)

	// Initialize services
	authService := services.NewAuthService(userRepo, questionRepo, settingsRepo, tx, jwtUtil)
	settingsService := services.NewSettingsService(settingsRepo)
	vehicleService := services.NewVehicleService(vehicleRepo, fuelRepo, maintenanceRepo, tx)
	fuelService := services.NewFuelService(fuelRepo, vehicleRepo, maintenanceRepo, tx)
	maintenanceService := services.NewMaintenanceService(maintenanceRepo, vehicleRepo)
	analyticsService := services.NewAnalyticsService(fuelService, maintenanceService)
	reportService := services.NewReportService(vehicleService, fuelService, analyticsService, settingsService)

	cacheConfig := cache.DefaultCacheConfig().WithStatsTTL(cfg.CacheTTL)
	cacheManager := cache.NewCacheManager(redisClient, cacheConfig)
	if cacheManager != nil {
		for _, svc := range []interface {
			SetCacheManager(cache.CacheManager)
			SetCacheConfig(cache.CacheConfig)
		}{settingsService, vehicleService, fuelService, maintenanceService, analyticsService} {
			svc.SetCacheManager(cacheManager)
			svc.SetCacheConfig(cacheConfig)
		}
		log.Info("Response caching enabled")
	}

	// Initialize handlers
	h := &Handlers{
		Auth:        handlers.NewAuthHandler(authService, handlers.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure}),
		Vehicle:     handlers.NewVehicleHandler(vehicleService),
		Fuel:        handlers.NewFuelHandler(fuelService, settingsService),
		Maintenance: handlers.NewMaintenanceHandler(maintenanceService),
		Settings:    handlers.NewSettingsHandler(settingsService),
		Analytics:   handlers.NewAnalyticsHandler(analyticsService, reportService),
		Health:      handlers.NewHealthHandler(db, redisClient, cacheManager),
	}

	limiter := newLimiter(redisClient, cfg)
	Register(router, h, Options{JWT: jwtUtil, CookieName: cfg.CookieName, Limiter: limiter})
	return limiter
}

func newLimiter(redisClient *redis.Client, cfg *config.Config) ratelimit.RateLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}

	limitConfig := ratelimit.DefaultConfig()
	log := logger.For(logger.ComponentRateLimit)
	if cfg.RateLimitBackend == "redis" && redisClient != nil {
		limiter := ratelimit.NewRedisRateLimiter(redisClient.GetClient(), limitConfig)
		if err := limiter.LoadCustomLimits(); err != nil {
			log.WithError(err).Warn("Failed to load custom rate limits")
		}
		log.Info("Using Redis rate limiter")
		return limiter
	}

	log.Info("Using in-memory rate limiter")
	return ratelimit.NewMemoryRateLimiter(limitConfig)
}

// Register mounts the API under /api/v1.
func Register(router *gin.Engine, h *Handlers, opts Options) {
	limit := func(group *gin.RouterGroup) {
		if opts.Limiter != nil {
			group.Use(middleware.RateLimitMiddleware(opts.Limiter))
		}
	}

	api := router.Group("/api/v1")

	health := api.Group("/health")
	limit(health)
	health.GET("", h.Health.HealthCheck)

	// Public routes
	auth := api.Group("/auth")
	limit(auth)
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/check-email", h.Auth.CheckEmail)
		auth.GET("/security-questions", h.Auth.SecurityQuestions)
		auth.POST("/security-questions/verify", h.Auth.VerifySecurityQuestions)
		auth.PUT("/reset-password", h.Auth.ResetPassword)
	}

	// Protected routes. The limiter runs after authentication so that
	// buckets are keyed by user.
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(opts.JWT, opts.CookieName))
	limit(protected)
	{
		protected.POST("/auth/refresh", h.Auth.RefreshToken)
		protected.GET("/auth/me", h.Auth.Me)
		protected.GET("/auth/my-security-questions", h.Auth.MySecurityQuestions)
		protected.PUT("/auth/security-questions", h.Auth.UpdateSecurityQuestions)

		vehicles := protected.Group("/vehicles")
		{
			vehicles.GET("", h.Vehicle.GetVehicles)
			vehicles.POST("", h.Vehicle.CreateVehicle)
			vehicles.POST("/reorder", h.Vehicle.ReorderVehicles)
			vehicles.GET("/:id", h.Vehicle.GetVehicle)
			vehicles.PUT("/:id", h.Vehicle.UpdateVehicle)
			vehicles.DELETE("/:id", h.Vehicle.DeleteVehicle)
		}

		fuel := protected.Group("/fuel")
		{
			fuel.GET("", h.Fuel.GetEntries)
			fuel.GET("/full-entries", h.Fuel.GetFullEntries)
			fuel.GET("/stats", h.Fuel.GetStats)
			fuel.GET("/monthly", h.Fuel.GetMonthly)
			fuel.GET("/history", h.Fuel.GetHistory)
			fuel.GET("/export", h.Fuel.Export)
			fuel.POST("", h.Fuel.CreateEntry)
			fuel.PUT("/:id", h.Fuel.UpdateEntry)
			fuel.DELETE("/:id", h.Fuel.DeleteEntry)
		}

		maintenance := protected.Group("/maintenance-costs")
		{
			maintenance.GET("", h.Maintenance.GetCosts)
			maintenance.GET("/stats", h.Maintenance.GetStats)
			maintenance.GET("/categories", h.Maintenance.GetCategories)
			maintenance.POST("", h.Maintenance.CreateCost)
			maintenance.PUT("/:id", h.Maintenance.UpdateCost)
			maintenance.DELETE("/:id", h.Maintenance.DeleteCost)
		}

		protected.GET("/settings", h.Settings.GetSettings)
		protected.PUT("/settings", h.Settings.UpdateSettings)

		protected.GET("/analytics", h.Analytics.GetAnalytics)
		protected.GET("/reports/pdf", h.Analytics.GetPDFReport)
	}
}
