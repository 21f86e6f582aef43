package repository

import (
	"context"
	"errors"
	"time"

	"fuel-tracker/internal/models"
	"fuel-tracker/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VehicleRepository struct {
	collection *mongo.Collection
}

func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{
		collection: db.Collection(database.VehiclesCollection),
	}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, vehicle)
	if err != nil {
		return translate(err)
	}

	vehicle.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID returns the vehicle only if it belongs to userID.
func (r *VehicleRepository) FindByID(ctx context.Context, userID, id primitive.ObjectID) (*models.Vehicle, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var vehicle models.Vehicle
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&vehicle)
	if err != nil {
		return nil, translate(err)
	}
	return &vehicle, nil
}

// FindByUser lists the user's vehicles by display order, newest first within
// the same order.
func (r *VehicleRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, includeInactive bool) ([]*models.Vehicle, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if !includeInactive {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "display_order", Value: 1},
		{Key: "created_at", Value: -1},
	})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Vehicle](ctx, cursor)
}

// FindByIDs returns those of ids that belong to userID.
func (r *VehicleRepository) FindByIDs(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) ([]*models.Vehicle, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Vehicle](ctx, cursor)
}

// NextDisplayOrder returns one past the user's highest display order, or 0
// for a user without vehicles.
func (r *VehicleRepository) NextDisplayOrder(ctx context.Context, userID primitive.ObjectID) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "display_order", Value: -1}}).
		SetProjection(bson.M{"display_order": 1})

	var highest struct {
		DisplayOrder int `bson:"display_order"`
	}
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&highest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return highest.DisplayOrder + 1, nil
}

// Update replaces the editable fields of the user's vehicle and returns the
// stored version.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":          vehicle.Name,
			"make":          vehicle.Make,
			"model":         vehicle.Model,
			"year":          vehicle.Year,
			"license_plate": vehicle.LicensePlate,
			"color":         vehicle.Color,
			"is_active":     vehicle.IsActive,
			"updated_at":    time.Now(),
		},
	}

	var updated models.Vehicle
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": vehicle.ID, "user_id": vehicle.UserID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// SetDisplayOrder gives each vehicle its index in ids as display order.
func (r *VehicleRepository) SetDisplayOrder(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	writes := make([]mongo.WriteModel, len(ids))
	for i, id := range ids {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id, "user_id": userID}).
			SetUpdate(bson.M{"$set": bson.M{"display_order": i, "updated_at": now}})
	}

	_, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	return err
}

func (r *VehicleRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
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
