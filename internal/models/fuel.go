package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FuelType string

const (
	FuelTypeFull    FuelType = "FULL"
	FuelTypePartial FuelType = "PARTIAL"
)

// FuelEntry is a single fuel purchase. PARTIAL entries point at the FULL
// entry they top up through ParentEntry.
type FuelEntry struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"user_id" json:"userId"`
	VehicleID       primitive.ObjectID  `bson:"vehicle_id" json:"vehicleId"`
	Date            time.Time           `bson:"date" json:"date"`
	Odometer        float64             `bson:"odometer" json:"odometer"`
	Liters          float64             `bson:"liters" json:"liters"`
	CostPerLiter    float64             `bson:"cost_per_liter" json:"costPerLiter"`
	TotalCost       float64             `bson:"total_cost" json:"totalCost"`
	FuelType        FuelType            `bson:"fuel_type" json:"fuelType"`
	ParentEntry     *primitive.ObjectID `bson:"parent_entry,omitempty" json:"parentEntry,omitempty"`
	OdometerExtraKm *float64            `bson:"odometer_extra_km,omitempty" json:"odometerExtraKm,omitempty"`
	Location        string              `bson:"location,omitempty" json:"location,omitempty"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updatedAt"`
}

func (e *FuelEntry) IsFull() bool {
	return e.FuelType == FuelTypeFull
}

func (e *FuelEntry) IsPartial() bool {
	return e.FuelType == FuelTypePartial
}

// ExtraKm returns the positive odometer correction carried by the entry, or 0.
func (e *FuelEntry) ExtraKm() float64 {
	if e.OdometerExtraKm == nil || *e.OdometerExtraKm <= 0 {
		return 0
	}
	return *e.OdometerExtraKm
}

// FuelEntryView is a FuelEntry as returned by list endpoints, with its
// vehicle summary and, for FULL entries, the attached partial top-ups.
type FuelEntryView struct {
	*FuelEntry
	Vehicle  *VehicleSummary `json:"vehicle,omitempty"`
	Partials []*FuelEntry    `json:"partials,omitempty"`
}

// FuelExport is the document written by the export endpoint and read back by
// ledgerctl.
type FuelExport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Vehicle     *VehicleSummary    `json:"vehicle,omitempty"`
	Fuel        []*FuelEntry       `json:"fuel"`
	Maintenance []*MaintenanceCost `json:"maintenance"`
}
