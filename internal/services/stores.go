package services

import (
	"context"

	"fuel-tracker/internal/models"
	"fuel-tracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The stores below are the persistence the services need. The Mongo
// repositories satisfy them; tests use in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

type SecurityQuestionStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.SecurityQuestion, error)
	ReplaceForUser(ctx context.Context, userID primitive.ObjectID, questions []*models.SecurityQuestion) error
}

type SettingsStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Settings, error)
	Upsert(ctx context.Context, settings *models.Settings) (*models.Settings, error)
}

type VehicleStore interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	FindByID(ctx context.Context, userID, id primitive.ObjectID) (*models.Vehicle, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID, includeInactive bool) ([]*models.Vehicle, error)
	FindByIDs(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Vehicle, error)
	NextDisplayOrder(ctx context.Context, userID primitive.ObjectID) (int, error)
	Update(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	SetDisplayOrder(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
}

type FuelStore interface {
	Create(ctx context.Context, entry *models.FuelEntry) error
	FindByID(ctx context.Context, userID, id primitive.ObjectID) (*models.FuelEntry, error)
	Find(ctx context.Context, filter repository.FuelFilter) ([]*models.FuelEntry, error)
	FindPage(ctx context.Context, filter repository.FuelFilter, offset, limit int) ([]*models.FuelEntry, int64, error)
	FindChildren(ctx context.Context, userID primitive.ObjectID, parentIDs []primitive.ObjectID) ([]*models.FuelEntry, error)
	Update(ctx context.Context, entry *models.FuelEntry) (*models.FuelEntry, error)
	Touch(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteWithChildren(ctx context.Context, userID, id primitive.ObjectID) (int64, error)
	CountByVehicle(ctx context.Context, userID, vehicleID primitive.ObjectID) (int64, error)
}

type MaintenanceStore interface {
	Create(ctx context.Context, cost *models.MaintenanceCost) error
	FindByID(ctx context.Context, userID, id primitive.ObjectID) (*models.MaintenanceCost, error)
	Find(ctx context.Context, userID primitive.ObjectID, vehicleID *primitive.ObjectID) ([]*models.MaintenanceCost, error)
	Update(ctx context.Context, cost *models.MaintenanceCost) (*models.MaintenanceCost, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteByVehicle(ctx context.Context, userID, vehicleID primitive.ObjectID) (int64, error)
}

var (
	_ UserStore             = (*repository.UserRepository)(nil)
	_ SecurityQuestionStore = (*repository.SecurityQuestionRepository)(nil)
	_ SettingsStore         = (*repository.SettingsRepository)(nil)
	_ VehicleStore          = (*repository.VehicleRepository)(nil)
	_ FuelStore             = (*repository.FuelRepository)(nil)
	_ MaintenanceStore      = (*repository.MaintenanceRepository)(nil)
)
