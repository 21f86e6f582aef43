package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fuel-tracker/pkg/logger"
	"fuel-tracker/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RateLimitMiddleware creates a rate limiting middleware. Limiter failures are
// logged and the request is let through.
func RateLimitMiddleware(limiter ratelimit.RateLimiter) gin.HandlerFunc {
	log := logger.For(logger.ComponentRateLimit)

	return func(c *gin.Context) {
		clientID := getClientID(c)
		endpoint := getEndpointID(c)

		allowed, resetTime, err := limiter.Allow(clientID, endpoint)
		if err != nil {
			log.WithError(err).WithField(logger.FieldPath, c.Request.URL.Path).Warn("Rate limiter unavailable")
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		setRateLimitHeaders(c, limiter.Limit(clientID, endpoint), allowed, resetTime)

		if !allowed {
			log.WithFields(logrus.Fields{
				"client":         clientID,
				"endpoint":       endpoint,
				logger.FieldPath: c.Request.URL.Path,
			}).Info("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    "Rate limit exceeded",
				"error":      fmt.Sprintf("Too many requests. Try again in %v", resetTime.Round(time.Second)),
				"code":       "RATE_LIMIT_EXCEEDED",
				"retryAfter": retryAfterSeconds(resetTime),
			})
			return
		}

		c.Next()
	}
}

// getClientID identifies the caller: the authenticated user when the auth
// middleware ran first, otherwise the client address plus a User-Agent hash.
func getClientID(c *gin.Context) string {
	if uid := c.GetString(ContextUserID); uid != "" {
		return "user:" + uid
	}

	return fmt.Sprintf("anon:%s:%s", getClientIP(c), hashString(c.GetHeader("User-Agent")))
}

// getClientIP extracts the real client IP address
func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}

	return c.ClientIP()
}

func hashString(s string) string {
	if s == "" {
		return "unknown"
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:4])
}

// getEndpointID builds the "METHOD:/path" identifier the limiter categorises,
// with id segments replaced by "*".
func getEndpointID(c *gin.Context) string {
	return c.Request.Method + ":" + normalizePath(c.Request.URL.Path)
}

func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if isID(segment) {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// isID reports whether a path segment is a Mongo ObjectID or a number.
func isID(s string) bool {
	if s == "" {
		return false
	}
	if primitive.IsValidObjectID(s) {
		return true
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func retryAfterSeconds(resetTime time.Duration) int {
	seconds := int((resetTime + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func setRateLimitHeaders(c *gin.Context, limit ratelimit.RateLimit, allowed bool, resetTime time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit.RequestsPerMinute))
	c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.WindowSize.Seconds())))
	c.Header("X-RateLimit-Burst", strconv.Itoa(limit.BurstSize))

	if !allowed {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(resetTime)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetTime).Unix(), 10))
	}
}
