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

// FuelFilter scopes fuel queries. UserID is always required; a nil VehicleID
// covers all of the user's vehicles.
type FuelFilter struct {
	UserID    primitive.ObjectID
	VehicleID *primitive.ObjectID
	FuelType  models.FuelType
}

func (f FuelFilter) query() bson.M {
	q := bson.M{"user_id": f.UserID}
	if f.VehicleID != nil {
		q["vehicle_id"] = *f.VehicleID
	}
	if f.FuelType != "" {
		q["fuel_type"] = f.FuelType
	}
	return q
}

type FuelRepository struct {
	collection *mongo.Collection
}

func NewFuelRepository(db *mongo.Database) *FuelRepository {
	return &FuelRepository{
		collection: db.Collection(database.FuelEntriesCollection),
	}
}

func (r *FuelRepository) Create(ctx context.Context, entry *models.FuelEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return translate(err)
	}

	entry.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID returns the entry only if it belongs to userID.
func (r *FuelRepository) FindByID(ctx context.Context, userID, id primitive.ObjectID) (*models.FuelEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var entry models.FuelEntry
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&entry); err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// Find lists entries newest first.
func (r *FuelRepository) Find(ctx context.Context, filter FuelFilter) ([]*models.FuelEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FuelEntry](ctx, cursor)
}

// FindPage lists one page of entries newest first together with the total
// number of matching entries.
func (r *FuelRepository) FindPage(ctx context.Context, filter FuelFilter, offset, limit int) ([]*models.FuelEntry, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := filter.query()
	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}

	entries, err := decodeAll[models.FuelEntry](ctx, cursor)
	return entries, total, err
}

// FindChildren returns the PARTIAL entries attached to the given parents.
func (r *FuelRepository) FindChildren(ctx context.Context, userID primitive.ObjectID, parentIDs []primitive.ObjectID) ([]*models.FuelEntry, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"user_id": userID, "parent_entry": bson.M{"$in": parentIDs}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FuelEntry](ctx, cursor)
}

// Update replaces the user's entry and returns the stored version.
func (r *FuelRepository) Update(ctx context.Context, entry *models.FuelEntry) (*models.FuelEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	set := bson.M{
		"vehicle_id":     entry.VehicleID,
		"date":           entry.Date,
		"odometer":       entry.Odometer,
		"liters":         entry.Liters,
		"cost_per_liter": entry.CostPerLiter,
		"total_cost":     entry.TotalCost,
		"fuel_type":      entry.FuelType,
		"location":       entry.Location,
		"notes":          entry.Notes,
		"updated_at":     time.Now(),
	}
	unset := bson.M{}
	if entry.ParentEntry != nil {
		set["parent_entry"] = *entry.ParentEntry
	} else {
		unset["parent_entry"] = ""
	}
	if entry.OdometerExtraKm != nil {
		set["odometer_extra_km"] = *entry.OdometerExtraKm
	} else {
		unset["odometer_extra_km"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated models.FuelEntry
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": entry.ID, "user_id": entry.UserID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return nil, translate(err)
	}
	return &updated, nil
}

// Touch bumps updated_at on the user's entry.
func (r *FuelRepository) Touch(ctx context.Context, userID, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWithChildren removes the entry and any PARTIAL entries pointing at it,
// returning how many documents were deleted.
func (r *FuelRepository) DeleteWithChildren(ctx context.Context, userID, id primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return 0, err
	}
	if result.DeletedCount == 0 {
		return 0, ErrNotFound
	}

	children, err := r.collection.DeleteMany(ctx, bson.M{"parent_entry": id, "user_id": userID})
	if err != nil {
		return result.DeletedCount, err
	}
	return result.DeletedCount + children.DeletedCount, nil
}

func (r *FuelRepository) CountByVehicle(ctx context.Context, userID, vehicleID primitive.ObjectID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "vehicle_id": vehicleID})
}

// DeleteOrphanedPartials removes PARTIAL entries whose parent_entry no longer
// resolves to a document, across all users.
func (r *FuelRepository) DeleteOrphanedPartials(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"fuel_type":    models.FuelTypePartial,
			"parent_entry": bson.M{"$exists": true},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.FuelEntriesCollection,
			"localField":   "parent_entry",
			"foreignField": "_id",
			"as":           "parent",
		}}},
		{{Key: "$match", Value: bson.M{"parent": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var orphans []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &orphans); err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, len(orphans))
	for i, o := range orphans {
		ids[i] = o.ID
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
