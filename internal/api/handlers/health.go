package handlers

import (
	"net/http"
	"time"

	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/database"
	"fuel-tracker/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	db           *mongo.Database
	redisClient  *redis.Client
	cacheManager cache.CacheManager
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// NewHealthHandler builds the health endpoint. redisClient and cacheManager
// may be nil when Redis is not configured; Redis is then reported as disabled
// and does not affect the overall status.
func NewHealthHandler(db *mongo.Database, redisClient *redis.Client, cacheManager cache.CacheManager) *HealthHandler {
	return &HealthHandler{
		db:           db,
		redisClient:  redisClient,
		cacheManager: cacheManager,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	overallHealthy := true

	mongoStatus := h.checkMongoDB()
	response.Services["mongodb"] = mongoStatus
	if !mongoStatus["healthy"].(bool) {
		overallHealthy = false
	}

	redisStatus := h.checkRedis()
	response.Services["redis"] = redisStatus
	if !redisStatus["healthy"].(bool) {
		overallHealthy = false
	}

	if overallHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkMongoDB() map[string]interface{} {
	status := map[string]interface{}{
		"service": "mongodb",
		"healthy": false,
	}

	if h.db == nil {
		status["error"] = "Database client not initialized"
		return status
	}

	if err := database.Health(h.db); err != nil {
		status["error"] = err.Error()
		return status
	}
	status["healthy"] = true
	status["message"] = "Connected"
	return status
}

func (h *HealthHandler) checkRedis() map[string]interface{} {
	status := map[string]interface{}{
		"service": "redis",
		"healthy": true,
	}

	if h.redisClient == nil {
		status["message"] = "Disabled"
		return status
	}

	healthStatus := h.redisClient.HealthCheck()
	status["healthy"] = healthStatus.IsConnected
	status["connectionInfo"] = healthStatus.ConnectionInfo
	status["responseTime"] = healthStatus.ResponseTime.String()
	status["lastPing"] = healthStatus.LastPing
	if healthStatus.Error != "" {
		status["error"] = healthStatus.Error
	}
	status["connectionStats"] = h.redisClient.GetConnectionStats()

	if h.cacheManager != nil {
		status["cache"] = h.cacheManager.GetCacheStats()
	}

	return status
}
