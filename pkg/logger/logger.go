package logger

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldUserID     = "user_id"
	FieldVehicleID  = "vehicle_id"
	FieldEntryID    = "entry_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldClientIP   = "client_ip"
	FieldOperation  = "operation"
	FieldCacheKey   = "cache_key"
)

// Component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentAuth        = "auth"
	ComponentFuel        = "fuel"
	ComponentMaintenance = "maintenance"
	ComponentVehicle     = "vehicle"
	ComponentSettings    = "settings"
	ComponentAnalytics   = "analytics"
	ComponentReport      = "report"
	ComponentStorage     = "storage"
	ComponentCache       = "cache"
	ComponentRedis       = "redis"
	ComponentRateLimit   = "rate_limit"
	ComponentCleanup     = "cleanup"
)

// Setup configures the global logrus logger. Release mode logs JSON, any
// other gin mode logs human readable text.
func Setup(level, ginMode string) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(ginMode, "release") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// For returns an entry tagged with a component name.
func For(component string) *log.Entry {
	return log.WithField(FieldComponent, component)
}
