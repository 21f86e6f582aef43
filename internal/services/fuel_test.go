package services

import (
	"context"
	"testing"
	"time"

	"fuel-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFuelService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")
	other := f.vehicle(t, user, "Bike")

	parent, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)
	partial, err := f.fuel.Create(ctx, user, partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100))
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(req *FuelEntryRequest)
		wantErr error
	}{
		{"ZeroLiters", func(r *FuelEntryRequest) { r.Liters = 0 }, ErrValidation},
		{"NegativeCost", func(r *FuelEntryRequest) { r.TotalCost = -5 }, ErrValidation},
		{"UnknownFuelType", func(r *FuelEntryRequest) { r.FuelType = "HALF" }, ErrValidation},
		{"PartialWithoutParent", func(r *FuelEntryRequest) { r.FuelType = models.FuelTypePartial }, ErrValidation},
		{"NegativeExtraKm", func(r *FuelEntryRequest) { extra := -1.0; r.OdometerExtraKm = &extra }, ErrValidation},
		{"BadVehicleID", func(r *FuelEntryRequest) { r.VehicleID = "nope" }, ErrValidation},
		{"ForeignVehicle", func(r *FuelEntryRequest) { r.VehicleID = primitive.NewObjectID().Hex() }, ErrVehicleNotFound},
		{"MissingParent", func(r *FuelEntryRequest) {
			r.FuelType = models.FuelTypePartial
			r.ParentEntry = primitive.NewObjectID().Hex()
		}, ErrParentNotFound},
		{"ParentOfOtherVehicle", func(r *FuelEntryRequest) {
			r.VehicleID = other.ID.Hex()
			r.FuelType = models.FuelTypePartial
			r.ParentEntry = parent.ID.Hex()
		}, ErrParentNotFound},
		{"ParentIsPartial", func(r *FuelEntryRequest) {
			r.FuelType = models.FuelTypePartial
			r.ParentEntry = partial.ID.Hex()
		}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := fullRequest(v.ID.Hex(), day(2024, 2, 1), 1500, 30, 100)
			tt.mutate(req)

			_, err := f.fuel.Create(ctx, user, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFuelService_CreatePartialTouchesParent(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	parent, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)

	req := partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100)
	extra := 20.0
	req.OdometerExtraKm = &extra
	partial, err := f.fuel.Create(ctx, user, req)
	require.NoError(t, err)

	assert.Equal(t, parent.ID, *partial.ParentEntry)
	assert.Equal(t, 20.0, *partial.OdometerExtraKm)
	assert.Equal(t, []primitive.ObjectID{parent.ID}, f.fuelRepo.touched)
	assert.Equal(t, 1, f.tx.calls)

	// The parent's own odometer reading is left alone.
	stored, err := f.fuelRepo.FindByID(ctx, parent.UserID, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.Odometer)
}

func TestFuelService_ListAndStats(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	first, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)
	_, err = f.fuel.Create(ctx, user, partialRequest(v.ID.Hex(), first.ID.Hex(), day(2024, 1, 8), 1200, 10, 100))
	require.NoError(t, err)
	_, err = f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 15), 1500, 35, 100))
	require.NoError(t, err)

	list, err := f.fuel.List(ctx, user, v.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list.Entries, 3)

	// Newest first, with the partial attached to its parent.
	assert.Equal(t, 1500.0, list.Entries[0].Odometer)
	assert.Equal(t, first.ID, list.Entries[2].ID)
	require.Len(t, list.Entries[2].Partials, 1)
	assert.Equal(t, 10.0, list.Entries[2].Partials[0].Liters)
	require.NotNil(t, list.Entries[0].Vehicle)
	assert.Equal(t, "Axio", list.Entries[0].Vehicle.Name)

	assert.Equal(t, 3, list.Stats.TotalEntries)
	assert.Equal(t, 85.0, list.Stats.TotalLiters)
	assert.Equal(t, 500.0, list.Stats.TotalDistance)
	assert.InDelta(t, 10.0, list.Stats.AverageConsumption, 1e-9)
	assert.InDelta(t, 10.0, list.Stats.BestConsumption, 1e-9)
	assert.InDelta(t, 10.0, list.Stats.WorstConsumption, 1e-9)

	stats, err := f.fuel.Stats(ctx, user, "")
	require.NoError(t, err)
	assert.Equal(t, list.Stats, stats)

	fulls, err := f.fuel.FullEntries(ctx, user, v.ID.Hex())
	require.NoError(t, err)
	require.Len(t, fulls, 2)
	assert.Empty(t, fulls[0].Partials)
	assert.Len(t, fulls[1].Partials, 1)
}

func TestFuelService_History(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	var firstID string
	for i := 0; i < 5; i++ {
		e, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, time.Month(i+1), 1), float64(1000+i*500), 40, 100))
		require.NoError(t, err)
		if i == 0 {
			firstID = e.ID.Hex()
		}
	}
	_, err := f.fuel.Create(ctx, user, partialRequest(v.ID.Hex(), firstID, day(2024, 1, 10), 1200, 5, 100))
	require.NoError(t, err)

	page, total, err := f.fuel.History(ctx, user, v.ID.Hex(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, 3000.0, page[0].Odometer)
	assert.Equal(t, 2500.0, page[1].Odometer)

	last, total, err := f.fuel.History(ctx, user, v.ID.Hex(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, last, 1)
	assert.Equal(t, firstID, last[0].ID.Hex())
	assert.Len(t, last[0].Partials, 1)
}

func TestFuelService_Monthly(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	for _, req := range []*FuelEntryRequest{
		fullRequest(v.ID.Hex(), day(2023, 12, 20), 900, 30, 100),
		fullRequest(v.ID.Hex(), day(2024, 1, 10), 1200, 30, 100),
		fullRequest(v.ID.Hex(), day(2024, 2, 10), 1500, 20, 100),
	} {
		_, err := f.fuel.Create(ctx, user, req)
		require.NoError(t, err)
	}

	result, err := f.fuel.Monthly(ctx, user, v.ID.Hex(), 2024, 0)
	require.NoError(t, err)
	require.Len(t, result.Data, 2)
	assert.Equal(t, time.February, result.Data[0].MonthNumber)
	assert.Equal(t, time.January, result.Data[1].MonthNumber)

	// The December seed gives January its distance without being counted.
	assert.Equal(t, 1, result.Data[1].TotalEntries)
	assert.Equal(t, 300.0, result.Data[1].TotalDistance)
	assert.Equal(t, []int{2024, 2023}, result.Periods.Years)

	january, err := f.fuel.Monthly(ctx, user, v.ID.Hex(), 2024, time.January)
	require.NoError(t, err)
	require.Len(t, january.Data, 1)
	assert.Equal(t, "January", january.Data[0].Month)

	_, err = f.fuel.Monthly(ctx, user, v.ID.Hex(), 2024, 13)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFuelService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	parent, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)
	child, err := f.fuel.Create(ctx, user, partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100))
	require.NoError(t, err)
	other, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 2, 5), 1600, 30, 100))
	require.NoError(t, err)

	t.Run("Update", func(t *testing.T) {
		updated, err := f.fuel.Update(ctx, user, other.ID.Hex(), fullRequest(v.ID.Hex(), day(2024, 2, 6), 1650, 32, 110))
		require.NoError(t, err)
		assert.Equal(t, 1650.0, updated.Odometer)
		assert.Equal(t, other.CreatedAt.Unix(), updated.CreatedAt.Unix())
	})

	t.Run("UpdateOwnParentRejected", func(t *testing.T) {
		_, err := f.fuel.Update(ctx, user, child.ID.Hex(), partialRequest(v.ID.Hex(), child.ID.Hex(), day(2024, 1, 8), 1200, 10, 100))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("OtherUserCannotTouch", func(t *testing.T) {
		stranger := primitive.NewObjectID().Hex()
		_, err := f.fuel.Update(ctx, stranger, other.ID.Hex(), fullRequest(v.ID.Hex(), day(2024, 2, 6), 1650, 32, 110))
		assert.ErrorIs(t, err, ErrEntryNotFound)

		_, err = f.fuel.Delete(ctx, stranger, other.ID.Hex())
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("DeleteFullCascades", func(t *testing.T) {
		deleted, err := f.fuel.Delete(ctx, user, parent.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		list, err := f.fuel.List(ctx, user, "")
		require.NoError(t, err)
		require.Len(t, list.Entries, 1)
		assert.Equal(t, other.ID, list.Entries[0].ID)
	})
}

func TestFuelService_UpdateKeepsOdometerExtraKm(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	parent, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)
	req := partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100)
	extra := 20.0
	req.OdometerExtraKm = &extra
	partial, err := f.fuel.Create(ctx, user, req)
	require.NoError(t, err)
	_, err = f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 20), 1600, 40, 100))
	require.NoError(t, err)

	stats, err := f.fuel.Stats(ctx, user, v.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 580.0, stats.TotalDistance)

	t.Run("OmittedKeepsCorrection", func(t *testing.T) {
		edit := partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100)
		edit.Notes = "top-up before the highway"
		updated, err := f.fuel.Update(ctx, user, partial.ID.Hex(), edit)
		require.NoError(t, err)
		require.NotNil(t, updated.OdometerExtraKm)
		assert.Equal(t, 20.0, *updated.OdometerExtraKm)
		assert.Equal(t, "top-up before the highway", updated.Notes)

		stats, err := f.fuel.Stats(ctx, user, v.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, 580.0, stats.TotalDistance)
	})

	t.Run("ExplicitZeroClears", func(t *testing.T) {
		edit := partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100)
		zero := 0.0
		edit.OdometerExtraKm = &zero
		updated, err := f.fuel.Update(ctx, user, partial.ID.Hex(), edit)
		require.NoError(t, err)
		assert.Nil(t, updated.OdometerExtraKm)

		stats, err := f.fuel.Stats(ctx, user, v.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, 600.0, stats.TotalDistance)
	})
}

func TestFuelService_UpdateFullWithPartialsKeepsChildrenValid(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")
	bike := f.vehicle(t, user, "Bike")

	parent, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)
	other, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 2), 800, 40, 100))
	require.NoError(t, err)
	_, err = f.fuel.Create(ctx, user, partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 8), 1200, 10, 100))
	require.NoError(t, err)

	t.Run("ToPartialRejected", func(t *testing.T) {
		_, err := f.fuel.Update(ctx, user, parent.ID.Hex(), partialRequest(v.ID.Hex(), other.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
		assert.ErrorIs(t, err, ErrValidation)

		stored, err := f.fuelRepo.FindByID(ctx, parent.UserID, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FuelTypeFull, stored.FuelType)
	})

	t.Run("ToOtherVehicleRejected", func(t *testing.T) {
		_, err := f.fuel.Update(ctx, user, parent.ID.Hex(), fullRequest(bike.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
		assert.ErrorIs(t, err, ErrValidation)

		stored, err := f.fuelRepo.FindByID(ctx, parent.UserID, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, stored.VehicleID)
	})

	t.Run("SameTypeAndVehicleAllowed", func(t *testing.T) {
		updated, err := f.fuel.Update(ctx, user, parent.ID.Hex(), fullRequest(v.ID.Hex(), day(2024, 1, 5), 1010, 40, 100))
		require.NoError(t, err)
		assert.Equal(t, 1010.0, updated.Odometer)
	})

	t.Run("ChildlessFullMayBecomePartial", func(t *testing.T) {
		updated, err := f.fuel.Update(ctx, user, other.ID.Hex(), partialRequest(v.ID.Hex(), parent.ID.Hex(), day(2024, 1, 6), 800, 40, 100))
		require.NoError(t, err)
		assert.Equal(t, models.FuelTypePartial, updated.FuelType)
	})
}

func TestFuelService_StatsCacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	f.withCache(t)
	v := f.vehicle(t, user, "Axio")
	bike := f.vehicle(t, user, "Bike")

	_, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)

	perVehicle, err := f.fuel.Stats(ctx, user, v.ID.Hex())
	require.NoError(t, err)
	all, err := f.fuel.Stats(ctx, user, "")
	require.NoError(t, err)
	bikeStats, err := f.fuel.Stats(ctx, user, bike.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, perVehicle.TotalEntries)
	assert.Equal(t, 1, all.TotalEntries)
	assert.Equal(t, 0, bikeStats.TotalEntries)

	_, err = f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 20), 1400, 40, 100))
	require.NoError(t, err)

	perVehicle, err = f.fuel.Stats(ctx, user, v.ID.Hex())
	require.NoError(t, err)
	all, err = f.fuel.Stats(ctx, user, "")
	require.NoError(t, err)
	assert.Equal(t, 2, perVehicle.TotalEntries)
	assert.Equal(t, 400.0, perVehicle.TotalDistance)
	assert.Equal(t, 2, all.TotalEntries)
}

func TestFuelService_Export(t *testing.T) {
	ctx := context.Background()
	user := primitive.NewObjectID().Hex()
	f := newLedgerFixture()
	v := f.vehicle(t, user, "Axio")

	_, err := f.fuel.Create(ctx, user, fullRequest(v.ID.Hex(), day(2024, 1, 5), 1000, 40, 100))
	require.NoError(t, err)
	_, err = f.maintenance.Create(ctx, user, &MaintenanceCostRequest{
		VehicleID:   v.ID.Hex(),
		Date:        day(2024, 1, 6),
		Description: "Front pads",
		Cost:        3200,
		Category:    models.MaintenanceCategoryBrakes,
	})
	require.NoError(t, err)

	export, err := f.fuel.Export(ctx, user, v.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, export.Vehicle)
	assert.Equal(t, "Axio", export.Vehicle.Name)
	assert.Len(t, export.Fuel, 1)
	assert.Len(t, export.Maintenance, 1)

	empty, err := f.fuel.Export(ctx, primitive.NewObjectID().Hex(), "")
	require.NoError(t, err)
	assert.Nil(t, empty.Vehicle)
	assert.NotNil(t, empty.Fuel)
	assert.Empty(t, empty.Fuel)
}
