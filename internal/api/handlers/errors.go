package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrVehicleHasEntries),
		errors.Is(err, services.ErrNoSecurityQuestions):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrSecurityAnswers),
		errors.Is(err, services.ErrInvalidResetToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrVehicleNotFound),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrParentNotFound),
		errors.Is(err, services.ErrMaintenanceNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func serviceError(c *gin.Context, message string, err error) {
	utils.ErrorResponse(c, statusFor(err), message, err)
}

// bindRequest decodes and validates a JSON body. On failure the error
// response has already been written.
func bindRequest(c *gin.Context, validate *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := validate.Struct(req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return false
	}
	return true
}

func intQuery(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+key+" parameter", err)
		return 0, false
	}
	return value, true
}
