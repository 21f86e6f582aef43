package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-tracker/internal/models"
	"fuel-tracker/internal/repository"
	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/database"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleService struct {
	cacheSupport
	vehicles    VehicleStore
	fuel        FuelStore
	maintenance MaintenanceStore
	tx          database.Transactor
	log         *log.Entry
}

func NewVehicleService(vehicles VehicleStore, fuel FuelStore, maintenance MaintenanceStore, tx database.Transactor) *VehicleService {
	return &VehicleService{
		cacheSupport: newCacheSupport(),
		vehicles:     vehicles,
		fuel:         fuel,
		maintenance:  maintenance,
		tx:           tx,
		log:          logger.For(logger.ComponentVehicle),
	}
}

type CreateVehicleRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	Make         string `json:"make,omitempty" validate:"max=50"`
	Model        string `json:"model,omitempty" validate:"max=50"`
	Year         int    `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	LicensePlate string `json:"licensePlate,omitempty" validate:"max=20"`
	Color        string `json:"color,omitempty" validate:"max=30"`
}

// UpdateVehicleRequest is a partial update; nil fields are left unchanged.
type UpdateVehicleRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Make         *string `json:"make,omitempty" validate:"omitempty,max=50"`
	Model        *string `json:"model,omitempty" validate:"omitempty,max=50"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	LicensePlate *string `json:"licensePlate,omitempty" validate:"omitempty,max=20"`
	Color        *string `json:"color,omitempty" validate:"omitempty,max=30"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

type ReorderVehiclesRequest struct {
	VehicleIDs []string `json:"vehicleIds" validate:"required,min=1"`
}

func (s *VehicleService) List(ctx context.Context, userID string, includeInactive bool) ([]*models.Vehicle, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	key := cache.ScopeKey("vehicles", userID, "", includeInactive)
	return cached(&s.cacheSupport, key, cache.DataTypeVehicleList, []string{cache.UserTag(userID)}, func() ([]*models.Vehicle, error) {
		vehicles, err := s.vehicles.FindByUser(ctx, uid, includeInactive)
		if err != nil {
			return nil, fmt.Errorf("failed to list vehicles: %w", err)
		}
		if vehicles == nil {
			vehicles = []*models.Vehicle{}
		}
		return vehicles, nil
	})
}

func (s *VehicleService) Get(ctx context.Context, userID, vehicleID string) (*models.Vehicle, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	vid, err := parseID("vehicle", vehicleID)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, uid, vid)
}

func (s *VehicleService) find(ctx context.Context, userID, vehicleID primitive.ObjectID) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, userID, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return vehicle, nil
}

// Create appends the vehicle after the user's existing ones.
func (s *VehicleService) Create(ctx context.Context, userID string, req *CreateVehicleRequest) (*models.Vehicle, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	order, err := s.vehicles.NextDisplayOrder(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to compute display order: %w", err)
	}

	now := time.Now()
	vehicle := &models.Vehicle{
		UserID:       uid,
		Name:         strings.TrimSpace(req.Name),
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		Color:        req.Color,
		IsActive:     true,
		DisplayOrder: order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.invalidateUser(userID)
	s.log.WithFields(log.Fields{
		logger.FieldUserID:    userID,
		logger.FieldVehicleID: vehicle.ID.Hex(),
	}).Info("Vehicle created")
	return vehicle, nil
}

func (s *VehicleService) Update(ctx context.Context, userID, vehicleID string, req *UpdateVehicleRequest) (*models.Vehicle, error) {
	vehicle, err := s.Get(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		vehicle.Name = strings.TrimSpace(*req.Name)
	}
	if req.Make != nil {
		vehicle.Make = *req.Make
	}
	if req.Model != nil {
		vehicle.Model = *req.Model
	}
	if req.Year != nil {
		vehicle.Year = *req.Year
	}
	if req.LicensePlate != nil {
		vehicle.LicensePlate = *req.LicensePlate
	}
	if req.Color != nil {
		vehicle.Color = *req.Color
	}
	if req.IsActive != nil {
		vehicle.IsActive = *req.IsActive
	}

	updated, err := s.vehicles.Update(ctx, vehicle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.invalidateUser(userID)
	return updated, nil
}

// Delete removes a vehicle and its maintenance costs. Vehicles with fuel
// entries cannot be deleted; they can be deactivated instead.
func (s *VehicleService) Delete(ctx context.Context, userID, vehicleID string) error {
	vehicle, err := s.Get(ctx, userID, vehicleID)
	if err != nil {
		return err
	}

	count, err := s.fuel.CountByVehicle(ctx, vehicle.UserID, vehicle.ID)
	if err != nil {
		return fmt.Errorf("failed to count fuel entries: %w", err)
	}
	if count > 0 {
		return ErrVehicleHasEntries
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.maintenance.DeleteByVehicle(ctx, vehicle.UserID, vehicle.ID); err != nil {
			return fmt.Errorf("failed to delete maintenance costs: %w", err)
		}
		if err := s.vehicles.Delete(ctx, vehicle.UserID, vehicle.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrVehicleNotFound
			}
			return fmt.Errorf("failed to delete vehicle: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateUser(userID)
	s.log.WithFields(log.Fields{
		logger.FieldUserID:    userID,
		logger.FieldVehicleID: vehicleID,
	}).Info("Vehicle deleted")
	return nil
}

// Reorder sets each vehicle's display order to its position in the request.
// Every id must name a distinct vehicle of the user.
func (s *VehicleService) Reorder(ctx context.Context, userID string, req *ReorderVehiclesRequest) error {
	uid, err := parseID("user", userID)
	if err != nil {
		return err
	}

	ids := make([]primitive.ObjectID, len(req.VehicleIDs))
	seen := make(map[primitive.ObjectID]bool, len(req.VehicleIDs))
	for i, hex := range req.VehicleIDs {
		id, err := parseID("vehicle", hex)
		if err != nil {
			return err
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate vehicle id %s", ErrValidation, hex)
		}
		seen[id] = true
		ids[i] = id
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		owned, err := s.vehicles.FindByIDs(ctx, uid, ids)
		if err != nil {
			return fmt.Errorf("failed to load vehicles: %w", err)
		}
		if len(owned) != len(ids) {
			return fmt.Errorf("%w: some vehicles not found or unauthorized", ErrValidation)
		}
		return s.vehicles.SetDisplayOrder(ctx, uid, ids)
	})
	if err != nil {
		return err
	}

	s.invalidateUser(userID)
	return nil
}

// vehicleSummaries indexes the user's vehicles, inactive ones included, for the
// listing views of other services.
func vehicleSummaries(ctx context.Context, vehicles VehicleStore, userID primitive.ObjectID) (map[primitive.ObjectID]*models.VehicleSummary, error) {
	all, err := vehicles.FindByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicles: %w", err)
	}
	index := make(map[primitive.ObjectID]*models.VehicleSummary, len(all))
	for _, v := range all {
		summary := v.Summary()
		index[v.ID] = &summary
	}
	return index, nil
}
