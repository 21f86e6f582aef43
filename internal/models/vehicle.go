package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"userId"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	Make         string             `bson:"make,omitempty" json:"make,omitempty"`
	Model        string             `bson:"model,omitempty" json:"model,omitempty"`
	Year         int                `bson:"year,omitempty" json:"year,omitempty"`
	LicensePlate string             `bson:"license_plate,omitempty" json:"licensePlate,omitempty"`
	Color        string             `bson:"color,omitempty" json:"color,omitempty"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	DisplayOrder int                `bson:"display_order" json:"displayOrder"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// VehicleSummary is the compact form embedded in fuel and maintenance listings.
type VehicleSummary struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	LicensePlate string             `json:"licensePlate,omitempty"`
}

func (v *Vehicle) Summary() VehicleSummary {
	return VehicleSummary{ID: v.ID, Name: v.Name, LicensePlate: v.LicensePlate}
}
