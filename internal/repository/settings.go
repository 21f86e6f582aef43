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

type SettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{
		collection: db.Collection(database.SettingsCollection),
	}
}

func (r *SettingsRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Settings, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var settings models.Settings
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&settings); err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

// Upsert writes the user's settings, creating the document on first use, and
// returns the stored version.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"currency":         settings.Currency,
			"date_format":      settings.DateFormat,
			"distance_unit":    settings.DistanceUnit,
			"volume_unit":      settings.VolumeUnit,
			"entries_per_page": settings.EntriesPerPage,
			"timezone":         settings.Timezone,
			"updated_at":       now,
		},
		"$setOnInsert": bson.M{
			"user_id":    settings.UserID,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Settings
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": settings.UserID}, update, opts).Decode(&stored)
	if err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}
