package repository

import (
	"context"
	"time"

	"fuel-tracker/internal/models"
	"fuel-tracker/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MaintenanceRepository struct {
	collection *mongo.Collection
}

func NewMaintenanceRepository(db *mongo.Database) *MaintenanceRepository {
	return &MaintenanceRepository{
		collection: db.Collection(database.MaintenanceCostsCollection),
	}
}

func (r *MaintenanceRepository) Create(ctx context.Context, cost *models.MaintenanceCost) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, cost)
	if err != nil {
		return translate(err)
	}

	cost.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *MaintenanceRepository) FindByID(ctx context.Context, userID, id primitive.ObjectID) (*models.MaintenanceCost, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cost models.MaintenanceCost
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&cost); err != nil {
		return nil, translate(err)
	}
	return &cost, nil
}

// Find lists the user's costs newest first, optionally for one vehicle.
func (r *MaintenanceRepository) Find(ctx context.Context, userID primitive.ObjectID, vehicleID *primitive.ObjectID) ([]*models.MaintenanceCost, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if vehicleID != nil {
		filter["vehicle_id"] = *vehicleID
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.MaintenanceCost](ctx, cursor)
}

func (r *MaintenanceRepository) Update(ctx context.Context, cost *models.MaintenanceCost) (*models.MaintenanceCost, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{
		"vehicle_id":  cost.VehicleID,
		"date":        cost.Date,
		"description": cost.Description,
		"cost":        cost.Cost,
		"category":    cost.Category,
		"location":    cost.Location,
		"notes":       cost.Notes,
		"updated_at":  time.Now(),
	}
	update := bson.M{"$set": set}
	if cost.Odometer != nil {
		set["odometer"] = *cost.Odometer
	} else {
		update["$unset"] = bson.M{"odometer": ""}
	}

	var updated models.MaintenanceCost
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": cost.ID, "user_id": cost.UserID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

func (r *MaintenanceRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByVehicle removes every cost recorded against the vehicle.
func (r *MaintenanceRepository) DeleteByVehicle(ctx context.Context, userID, vehicleID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID, "vehicle_id": vehicleID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
