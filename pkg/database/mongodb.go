package database

import (
	"context"
	"fmt"
	"time"

	"fuel-tracker/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// Collection names
const (
	UsersCollection             = "users"
	SecurityQuestionsCollection = "security_questions"
	SettingsCollection          = "settings"
	VehiclesCollection          = "vehicles"
	FuelEntriesCollection       = "fuel_entries"
	MaintenanceCostsCollection  = "maintenance_costs"
)

const defaultDatabase = "fuel_tracker"

// Connect establishes a connection to MongoDB
func Connect(mongoURI string) (*mongo.Database, error) {
	// Parse the URI to extract database name
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDatabase
	}

	log := logger.For(logger.ComponentStorage)
	log.WithField("database", dbName).Info("Connected to MongoDB")

	db := client.Database(dbName)

	if err := createIndexes(db); err != nil {
		log.WithError(err).Warn("Failed to create indexes")
	}

	return db, nil
}

// createIndexes creates necessary indexes for all collections
func createIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		SecurityQuestionsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		SettingsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		VehiclesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "display_order", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		FuelEntriesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "parent_entry", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "fuel_type", Value: 1}}},
		},
		MaintenanceCostsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
	}

	log := logger.For(logger.ComponentStorage)
	var firstErr error
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			log.WithError(err).WithField("collection", name).Warn("Failed to create indexes")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr == nil {
		log.Debug("Database indexes created successfully")
	}
	return firstErr
}

// Disconnect closes the MongoDB connection
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	logger.For(logger.ComponentStorage).Info("Disconnected from MongoDB")
	return nil
}

// Health checks the database connection health
func Health(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
