package handlers

import (
	"net/http"
	"strconv"

	"fuel-tracker/internal/api/middleware"
	"fuel-tracker/internal/services"
	"fuel-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
	validator      *validator.Validate
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		validator:      validator.New(),
	}
}

// GetVehicles lists the user's vehicles in display order
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("includeInactive"))

	vehicles, err := h.vehicleService.List(c.Request.Context(), middleware.UserID(c), includeInactive)
	if err != nil {
		serviceError(c, "Failed to retrieve vehicles", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", vehicles)
}

// GetVehicle retrieves a specific vehicle by ID
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		serviceError(c, "Failed to retrieve vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", vehicle)
}

// CreateVehicle creates a new vehicle
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req services.CreateVehicleRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		serviceError(c, "Failed to create vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Vehicle created successfully", vehicle)
}

// UpdateVehicle applies a partial update
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var req services.UpdateVehicleRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		serviceError(c, "Failed to update vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle updated successfully", vehicle)
}

// DeleteVehicle deletes a vehicle and its maintenance costs
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	if err := h.vehicleService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		serviceError(c, "Failed to delete vehicle", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicle deleted successfully", nil)
}

// ReorderVehicles sets display order from the position in the request
func (h *VehicleHandler) ReorderVehicles(c *gin.Context) {
	var req services.ReorderVehiclesRequest
	if !bindRequest(c, h.validator, &req) {
		return
	}

	userID := middleware.UserID(c)
	if err := h.vehicleService.Reorder(c.Request.Context(), userID, &req); err != nil {
		serviceError(c, "Failed to reorder vehicles", err)
		return
	}

	vehicles, err := h.vehicleService.List(c.Request.Context(), userID, true)
	if err != nil {
		serviceError(c, "Failed to retrieve vehicles", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vehicles reordered successfully", vehicles)
}
