package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-tracker/internal/ledger"
	"fuel-tracker/internal/models"
	"fuel-tracker/internal/repository"
	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MaintenanceService struct {
	cacheSupport
	maintenance MaintenanceStore
	vehicles    VehicleStore
	log         *log.Entry
}

func NewMaintenanceService(maintenance MaintenanceStore, vehicles VehicleStore) *MaintenanceService {
	return &MaintenanceService{
		cacheSupport: newCacheSupport(),
		maintenance:  maintenance,
		vehicles:     vehicles,
		log:          logger.For(logger.ComponentMaintenance),
	}
}

type MaintenanceCostRequest struct {
	VehicleID   string    `json:"vehicleId" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Description string    `json:"description" validate:"required,max=500"`
	Cost        float64   `json:"cost" validate:"required,gt=0"`
	Category    string    `json:"category" validate:"required"`
	Odometer    *float64  `json:"odometer,omitempty" validate:"omitempty,gt=0"`
	Location    string    `json:"location,omitempty" validate:"max=200"`
	Notes       string    `json:"notes,omitempty" validate:"max=1000"`
}

type MaintenanceListResult struct {
	Costs []*models.MaintenanceCostView `json:"costs"`
	Stats ledger.MaintenanceCostStats   `json:"stats"`
}

// Categories returns the accepted maintenance categories in display order.
func (s *MaintenanceService) Categories() []string {
	categories := make([]string, len(models.MaintenanceCategories))
	copy(categories, models.MaintenanceCategories)
	return categories
}

func (s *MaintenanceService) List(ctx context.Context, userID, vehicleID string) (*MaintenanceListResult, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	vid, err := parseScope(vehicleID)
	if err != nil {
		return nil, err
	}

	costs, err := s.maintenance.Find(ctx, uid, vid)
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance costs: %w", err)
	}
	summaries, err := vehicleSummaries(ctx, s.vehicles, uid)
	if err != nil {
		return nil, err
	}

	views := make([]*models.MaintenanceCostView, len(costs))
	for i, cost := range costs {
		views[i] = &models.MaintenanceCostView{MaintenanceCost: cost, Vehicle: summaries[cost.VehicleID]}
	}
	return &MaintenanceListResult{
		Costs: views,
		Stats: ledger.ComputeMaintenanceStats(costs),
	}, nil
}

func (s *MaintenanceService) Stats(ctx context.Context, userID, vehicleID string) (ledger.MaintenanceCostStats, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return ledger.MaintenanceCostStats{}, err
	}
	vid, err := parseScope(vehicleID)
	if err != nil {
		return ledger.MaintenanceCostStats{}, err
	}

	key := cache.ScopeKey("maintenance_stats", userID, vehicleID)
	return cached(&s.cacheSupport, key, cache.DataTypeMaintenance, scopeTags(userID, vehicleID), func() (ledger.MaintenanceCostStats, error) {
		costs, err := s.maintenance.Find(ctx, uid, vid)
		if err != nil {
			return ledger.MaintenanceCostStats{}, fmt.Errorf("failed to load maintenance costs: %w", err)
		}
		return ledger.ComputeMaintenanceStats(costs), nil
	})
}

func (s *MaintenanceService) Create(ctx context.Context, userID string, req *MaintenanceCostRequest) (*models.MaintenanceCost, error) {
	cost, err := s.buildCost(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	cost.CreatedAt = now
	cost.UpdatedAt = now

	if err := s.maintenance.Create(ctx, cost); err != nil {
		return nil, fmt.Errorf("failed to create maintenance cost: %w", err)
	}

	s.invalidateScope(userID, cost.VehicleID.Hex())
	s.log.WithFields(log.Fields{
		logger.FieldUserID:    userID,
		logger.FieldVehicleID: cost.VehicleID.Hex(),
		"category":            cost.Category,
	}).Info("Maintenance cost created")
	return cost, nil
}

func (s *MaintenanceService) Update(ctx context.Context, userID, costID string, req *MaintenanceCostRequest) (*models.MaintenanceCost, error) {
	existing, err := s.findCost(ctx, userID, costID)
	if err != nil {
		return nil, err
	}

	cost, err := s.buildCost(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	cost.ID = existing.ID
	cost.CreatedAt = existing.CreatedAt

	updated, err := s.maintenance.Update(ctx, cost)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMaintenanceNotFound
		}
		return nil, fmt.Errorf("failed to update maintenance cost: %w", err)
	}

	s.invalidateScope(userID, existing.VehicleID.Hex())
	if existing.VehicleID != updated.VehicleID {
		s.invalidateScope(userID, updated.VehicleID.Hex())
	}
	return updated, nil
}

func (s *MaintenanceService) Delete(ctx context.Context, userID, costID string) error {
	existing, err := s.findCost(ctx, userID, costID)
	if err != nil {
		return err
	}

	if err := s.maintenance.Delete(ctx, existing.UserID, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMaintenanceNotFound
		}
		return fmt.Errorf("failed to delete maintenance cost: %w", err)
	}

	s.invalidateScope(userID, existing.VehicleID.Hex())
	return nil
}

func (s *MaintenanceService) findCost(ctx context.Context, userID, costID string) (*models.MaintenanceCost, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	id, err := parseID("maintenance cost", costID)
	if err != nil {
		return nil, err
	}

	cost, err := s.maintenance.FindByID(ctx, uid, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMaintenanceNotFound
		}
		return nil, fmt.Errorf("failed to find maintenance cost: %w", err)
	}
	return cost, nil
}

func (s *MaintenanceService) buildCost(ctx context.Context, userID string, req *MaintenanceCostRequest) (*models.MaintenanceCost, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	vid, err := parseID("vehicle", req.VehicleID)
	if err != nil {
		return nil, err
	}

	if req.Cost <= 0 {
		return nil, fmt.Errorf("%w: cost must be positive", ErrValidation)
	}
	if !models.IsMaintenanceCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if err := s.ownVehicle(ctx, uid, vid); err != nil {
		return nil, err
	}

	cost := &models.MaintenanceCost{
		UserID:      uid,
		VehicleID:   vid,
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
		Cost:        req.Cost,
		Category:    req.Category,
		Location:    strings.TrimSpace(req.Location),
		Notes:       strings.TrimSpace(req.Notes),
	}
	if req.Odometer != nil && *req.Odometer > 0 {
		odometer := *req.Odometer
		cost.Odometer = &odometer
	}
	return cost, nil
}

func (s *MaintenanceService) ownVehicle(ctx context.Context, userID, vehicleID primitive.ObjectID) error {
	if _, err := s.vehicles.FindByID(ctx, userID, vehicleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVehicleNotFound
		}
		return fmt.Errorf("failed to find vehicle: %w", err)
	}
	return nil
}
