package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MaintenanceCost struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"user_id"`
	VehicleID   primitive.ObjectID `json:"vehicleId" bson:"vehicle_id"`
	Date        time.Time          `json:"date" bson:"date"`
	Description string             `json:"description" bson:"description"`
	Cost        float64            `json:"cost" bson:"cost"`
	Category    string             `json:"category" bson:"category"`
	Odometer    *float64           `json:"odometer,omitempty" bson:"odometer,omitempty"`
	Location    string             `json:"location,omitempty" bson:"location,omitempty"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Constants for maintenance categories
const (
	MaintenanceCategoryOilChange       = "Oil Change"
	MaintenanceCategoryTires           = "Tires"
	MaintenanceCategoryBrakes          = "Brakes"
	MaintenanceCategoryBattery         = "Battery"
	MaintenanceCategoryEngine          = "Engine"
	MaintenanceCategoryTransmission    = "Transmission"
	MaintenanceCategorySuspension      = "Suspension"
	MaintenanceCategoryExhaust         = "Exhaust"
	MaintenanceCategoryAirConditioning = "Air Conditioning"
	MaintenanceCategoryElectrical      = "Electrical"
	MaintenanceCategoryBodyWork        = "Body Work"
	MaintenanceCategoryWindows         = "Windows"
	MaintenanceCategoryLights          = "Lights"
	MaintenanceCategoryOther           = "Other"
)

// MaintenanceCategories lists the accepted categories in display order.
var MaintenanceCategories = []string{
	MaintenanceCategoryOilChange,
	MaintenanceCategoryTires,
	MaintenanceCategoryBrakes,
	MaintenanceCategoryBattery,
	MaintenanceCategoryEngine,
	MaintenanceCategoryTransmission,
	MaintenanceCategorySuspension,
	MaintenanceCategoryExhaust,
	MaintenanceCategoryAirConditioning,
	MaintenanceCategoryElectrical,
	MaintenanceCategoryBodyWork,
	MaintenanceCategoryWindows,
	MaintenanceCategoryLights,
	MaintenanceCategoryOther,
}

func IsMaintenanceCategory(category string) bool {
	for _, c := range MaintenanceCategories {
		if c == category {
			return true
		}
	}
	return false
}

type MaintenanceCostView struct {
	*MaintenanceCost
	Vehicle *VehicleSummary `json:"vehicle,omitempty"`
}
