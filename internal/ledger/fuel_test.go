package ledger

import (
	"testing"
	"time"

	"fuel-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid(n byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = n
	return id
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 30, 0, 0, time.UTC)
}

func fullEntry(id byte, date time.Time, odometer, liters, cost float64) *models.FuelEntry {
	return &models.FuelEntry{
		ID:           oid(id),
		Date:         date,
		Odometer:     odometer,
		Liters:       liters,
		CostPerLiter: cost / liters,
		TotalCost:    cost,
		FuelType:     models.FuelTypeFull,
	}
}

func partialEntry(id, parent byte, date time.Time, liters, cost float64) *models.FuelEntry {
	parentID := oid(parent)
	return &models.FuelEntry{
		ID:           oid(id),
		Date:         date,
		Liters:       liters,
		CostPerLiter: cost / liters,
		TotalCost:    cost,
		FuelType:     models.FuelTypePartial,
		ParentEntry:  &parentID,
	}
}

func withExtraKm(entry *models.FuelEntry, km float64) *models.FuelEntry {
	entry.OdometerExtraKm = &km
	return entry
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, FuelStats{}, ComputeStats(nil))
	assert.Equal(t, FuelStats{}, ComputeStats([]*models.FuelEntry{}))
}

func TestComputeStats_SingleFullEntry(t *testing.T) {
	stats := ComputeStats([]*models.FuelEntry{
		fullEntry(1, at(2024, time.March, 1), 1000, 40, 4000),
	})

	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 4000.0, stats.TotalCost)
	assert.Equal(t, 40.0, stats.TotalLiters)
	assert.Equal(t, 100.0, stats.AverageCostPerLiter)
	assert.Zero(t, stats.TotalDistance)
	assert.Zero(t, stats.AverageConsumption)
	assert.Zero(t, stats.BestConsumption)
	assert.Zero(t, stats.WorstConsumption)
	assert.Zero(t, stats.MileagePerLiter)
	assert.Zero(t, stats.TotalMileage)
}

func TestComputeStats_PartialLitersFoldIntoPreviousFull(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(1, at(2024, time.March, 1), 1000, 40, 4000),
		partialEntry(2, 1, at(2024, time.March, 5), 10, 1000),
		fullEntry(3, at(2024, time.March, 12), 1500, 45, 4500),
	}

	stats := ComputeStats(entries)

	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 9500.0, stats.TotalCost)
	assert.Equal(t, 95.0, stats.TotalLiters)
	assert.Equal(t, 500.0, stats.TotalDistance)
	assert.Equal(t, 500.0, stats.TotalMileage)
	assert.InDelta(t, 10.0, stats.AverageConsumption, 1e-9)
	assert.InDelta(t, 10.0, stats.BestConsumption, 1e-9)
	assert.InDelta(t, 10.0, stats.WorstConsumption, 1e-9)
	assert.InDelta(t, 500.0/95.0, stats.MileagePerLiter, 1e-9)
	assert.InDelta(t, 100.0, stats.AverageCostPerLiter, 1e-9)
}

func TestComputeStats_OdometerExtraKmShiftsBaseline(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(1, at(2024, time.April, 1), 1000, 40, 4000),
		withExtraKm(partialEntry(2, 1, at(2024, time.April, 3), 10, 1000), 20),
		fullEntry(3, at(2024, time.April, 9), 1600, 42, 4200),
	}

	stats := ComputeStats(entries)

	assert.Equal(t, 580.0, stats.TotalDistance)
	assert.InDelta(t, 50.0/580.0*100, stats.AverageConsumption, 1e-9)
}

func TestComputeStats_NonPositiveExtraKmIgnored(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(1, at(2024, time.April, 1), 1000, 40, 4000),
		withExtraKm(partialEntry(2, 1, at(2024, time.April, 3), 10, 1000), -50),
		fullEntry(3, at(2024, time.April, 9), 1600, 42, 4200),
	}

	assert.Equal(t, 600.0, ComputeStats(entries).TotalDistance)
}

func TestComputeStats_OrderIndependent(t *testing.T) {
	ordered := []*models.FuelEntry{
		fullEntry(1, at(2024, time.May, 1), 10000, 35, 3500),
		partialEntry(2, 1, at(2024, time.May, 4), 8, 800),
		fullEntry(3, at(2024, time.May, 10), 10420, 38, 3800),
		fullEntry(4, at(2024, time.May, 20), 10900, 40, 4000),
	}
	shuffled := []*models.FuelEntry{ordered[3], ordered[1], ordered[0], ordered[2]}

	assert.Equal(t, ComputeStats(ordered), ComputeStats(shuffled))
}

func TestComputeStats_MinMaxAndMean(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(1, at(2024, time.June, 1), 1000, 30, 3000),
		fullEntry(2, at(2024, time.June, 8), 1500, 50, 5000),
		fullEntry(3, at(2024, time.June, 15), 2000, 40, 4000),
	}

	stats := ComputeStats(entries)

	// 30/500 and 50/500 liters per 100 km
	assert.InDelta(t, 6.0, stats.BestConsumption, 1e-9)
	assert.InDelta(t, 10.0, stats.WorstConsumption, 1e-9)
	assert.InDelta(t, 8.0, stats.AverageConsumption, 1e-9)
	assert.Equal(t, 1000.0, stats.TotalDistance)
}

func TestComputeStats_NegativeDistanceDropped(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(1, at(2024, time.July, 1), 1000, 30, 3000),
		fullEntry(2, at(2024, time.July, 5), 900, 20, 2000),
		fullEntry(3, at(2024, time.July, 9), 1400, 25, 2500),
	}

	stats := ComputeStats(entries)

	assert.Equal(t, 500.0, stats.TotalDistance)
	assert.InDelta(t, 4.0, stats.AverageConsumption, 1e-9)
	assert.InDelta(t, 4.0, stats.BestConsumption, 1e-9)
	assert.InDelta(t, 4.0, stats.WorstConsumption, 1e-9)
}

func TestComputeStats_OrphanPartialCountsTowardTotalsOnly(t *testing.T) {
	orphan := partialEntry(9, 42, at(2024, time.August, 3), 12, 1200)
	noParent := &models.FuelEntry{ID: oid(10), Date: at(2024, time.August, 4), Liters: 5, TotalCost: 500, FuelType: models.FuelTypePartial}

	entries := []*models.FuelEntry{
		fullEntry(1, at(2024, time.August, 1), 1000, 40, 4000),
		orphan,
		noParent,
		fullEntry(3, at(2024, time.August, 10), 1400, 40, 4000),
	}

	stats := ComputeStats(entries)

	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 9700.0, stats.TotalCost)
	assert.Equal(t, 97.0, stats.TotalLiters)
	assert.Equal(t, 400.0, stats.TotalDistance)
	assert.InDelta(t, 10.0, stats.AverageConsumption, 1e-9)
}

func TestComputeStats_EqualTimestampsOrderedByID(t *testing.T) {
	sameDay := at(2024, time.September, 1)
	entries := []*models.FuelEntry{
		fullEntry(2, sameDay, 1500, 50, 5000),
		fullEntry(1, sameDay, 1000, 30, 3000),
		fullEntry(3, at(2024, time.September, 9), 2000, 40, 4000),
	}

	stats := ComputeStats(entries)

	assert.Equal(t, 1000.0, stats.TotalDistance)
	assert.InDelta(t, 6.0, stats.BestConsumption, 1e-9)
	assert.InDelta(t, 10.0, stats.WorstConsumption, 1e-9)
}

func TestComputeStats_Idempotent(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(3, at(2024, time.October, 20), 2000, 40, 4000),
		fullEntry(1, at(2024, time.October, 1), 1000, 30, 3000),
		partialEntry(2, 1, at(2024, time.October, 5), 10, 1000),
	}
	inputOrder := []primitive.ObjectID{entries[0].ID, entries[1].ID, entries[2].ID}

	first := ComputeStats(entries)
	second := ComputeStats(entries)

	assert.Equal(t, first, second)
	for i, entry := range entries {
		assert.Equal(t, inputOrder[i], entry.ID, "input slice must not be reordered")
	}
}

func TestComputeStats_NilEntriesSkipped(t *testing.T) {
	stats := ComputeStats([]*models.FuelEntry{nil, fullEntry(1, at(2024, time.March, 1), 1000, 40, 4000), nil})
	assert.Equal(t, 1, stats.TotalEntries)
}

func TestGroupPartials(t *testing.T) {
	entries := []*models.FuelEntry{
		fullEntry(3, at(2024, time.March, 20), 1500, 45, 4500),
		partialEntry(2, 1, at(2024, time.March, 5), 10, 1100),
		withExtraKm(partialEntry(4, 1, at(2024, time.March, 8), 5, 600), 15),
		fullEntry(1, at(2024, time.March, 1), 1000, 40, 4000),
	}

	fulls, partials := GroupPartials(entries)

	require.Len(t, fulls, 2)
	assert.Equal(t, oid(1), fulls[0].ID)
	assert.Equal(t, oid(3), fulls[1].ID)
	assert.Len(t, partials[oid(1)], 2)
	assert.Equal(t, 55.0, partials.CombinedLiters(fulls[0]))
	assert.Equal(t, 5700.0, partials.CombinedCost(fulls[0]))
	assert.Equal(t, 1015.0, partials.EffectiveOdometer(fulls[0]))
	assert.Equal(t, 45.0, partials.CombinedLiters(fulls[1]))
	assert.Equal(t, 1500.0, partials.EffectiveOdometer(fulls[1]))
}
