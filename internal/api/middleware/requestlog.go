package middleware

import (
	"time"

	"fuel-tracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestLogger tags every request with an id (reusing a valid incoming
// X-Request-ID) and writes one access log line when it completes. Errors
// attached with c.Error are included in the line.
func RequestLogger() gin.HandlerFunc {
	base := logger.For(logger.ComponentHTTP)

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()

		status := c.Writer.Status()
		entry := base.WithFields(log.Fields{
			logger.FieldRequestID:  requestID,
			logger.FieldMethod:     c.Request.Method,
			logger.FieldPath:       c.Request.URL.Path,
			logger.FieldStatusCode: status,
			logger.FieldDuration:   time.Since(start).Milliseconds(),
			logger.FieldClientIP:   c.ClientIP(),
		})
		if uid := c.GetString(ContextUserID); uid != "" {
			entry = entry.WithField(logger.FieldUserID, uid)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// RequestLog returns a log entry carrying the request id and user id.
func RequestLog(c *gin.Context, component string) *log.Entry {
	entry := logger.For(component).WithField(logger.FieldRequestID, c.GetString(ContextRequestID))
	if uid := c.GetString(ContextUserID); uid != "" {
		entry = entry.WithField(logger.FieldUserID, uid)
	}
	return entry
}
