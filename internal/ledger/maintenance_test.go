package ledger

import (
	"testing"
	"time"

	"fuel-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maintenanceEntry(date time.Time, category string, cost float64) *models.MaintenanceCost {
	return &models.MaintenanceCost{
		Date:        date,
		Category:    category,
		Cost:        cost,
		Description: category + " service",
	}
}

func TestComputeMaintenanceStats_Empty(t *testing.T) {
	stats := ComputeMaintenanceStats(nil)

	assert.Zero(t, stats.TotalEntries)
	assert.Zero(t, stats.TotalCost)
	assert.Zero(t, stats.AverageCost)
	require.NotNil(t, stats.Categories)
	require.NotNil(t, stats.MonthlyCosts)
	assert.Empty(t, stats.Categories)
	assert.Empty(t, stats.MonthlyCosts)
}

func TestComputeMaintenanceStats_GroupsByCategoryAndMonth(t *testing.T) {
	entries := []*models.MaintenanceCost{
		maintenanceEntry(at(2024, time.January, 3), models.MaintenanceCategoryOilChange, 2500),
		maintenanceEntry(at(2024, time.January, 20), models.MaintenanceCategoryBrakes, 6000),
		maintenanceEntry(at(2024, time.April, 11), models.MaintenanceCategoryOilChange, 2700),
		maintenanceEntry(at(2023, time.April, 11), models.MaintenanceCategoryTires, 12000),
	}

	stats := ComputeMaintenanceStats(entries)

	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 23200.0, stats.TotalCost)
	assert.Equal(t, 5800.0, stats.AverageCost)
	assert.Equal(t, map[string]float64{
		models.MaintenanceCategoryOilChange: 5200,
		models.MaintenanceCategoryBrakes:    6000,
		models.MaintenanceCategoryTires:     12000,
	}, stats.Categories)
	assert.Equal(t, map[string]float64{
		"2024-01": 8500,
		"2024-04": 2700,
		"2023-04": 12000,
	}, stats.MonthlyCosts)
}

func TestComputeMaintenanceStats_MonthKeyUsesUTC(t *testing.T) {
	dhaka := time.FixedZone("BDT", 6*60*60)
	// 1 Feb 03:00 in Dhaka is still 31 Jan in UTC
	entry := maintenanceEntry(time.Date(2024, time.February, 1, 3, 0, 0, 0, dhaka), models.MaintenanceCategoryBattery, 9000)

	stats := ComputeMaintenanceStats([]*models.MaintenanceCost{entry})

	assert.Equal(t, map[string]float64{"2024-01": 9000}, stats.MonthlyCosts)
}
