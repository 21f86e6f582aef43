package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Settings struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"userId"`
	Currency       string             `bson:"currency" json:"currency"`
	DateFormat     string             `bson:"date_format" json:"dateFormat"`
	DistanceUnit   string             `bson:"distance_unit" json:"distanceUnit"`
	VolumeUnit     string             `bson:"volume_unit" json:"volumeUnit"`
	EntriesPerPage int                `bson:"entries_per_page" json:"entriesPerPage"`
	Timezone       string             `bson:"timezone" json:"timezone"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings(userID primitive.ObjectID) *Settings {
	now := time.Now()
	return &Settings{
		UserID:         userID,
		Currency:       "BDT",
		DateFormat:     "DD/MM/YYYY",
		DistanceUnit:   "km",
		VolumeUnit:     "L",
		EntriesPerPage: 10,
		Timezone:       "Asia/Dhaka",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
