package handlers

import (
	"net/http"

	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	validator       *validator.Validate
}

func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		validator:       validator.New(),
	}
}

// GetSettings returns the user's settings, creating defaults on first use
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		serviceError(c, "Failed to retrieve settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings retrieved successfully", settings)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req services.UpdateSettingsRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		serviceError(c, "Failed to update settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings updated successfully", settings)
}
