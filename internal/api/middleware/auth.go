package middleware

import (
	"net/http"
	"strings"

	"fuel-tracker/pkg/jwt"
	"fuel-tracker/pkg/logger"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextName   = "name"
)

// AuthMiddleware accepts a session token from the auth cookie or from an
// "Authorization: Bearer" header. The cookie wins when both are present.
func AuthMiddleware(jwtUtil *jwt.JWTUtil, cookieName string) gin.HandlerFunc {
	log := logger.For(logger.ComponentAuth)

	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c, cookieName)
		if tokenString == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			log.WithError(err).WithField(logger.FieldPath, c.Request.URL.Path).Debug("Rejected token")
			utils.AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextName, claims.Name)
		c.Next()
	}
}

// TokenFromRequest returns the raw session token, or "" when none was sent.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	// Handle both "Bearer token" and just "token" formats
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// UserID returns the authenticated user's id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
