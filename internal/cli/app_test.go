package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fuel-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fullEntry(vehicle primitive.ObjectID, date time.Time, odometer float64) *models.FuelEntry {
	return &models.FuelEntry{
		ID:           primitive.NewObjectID(),
		VehicleID:    vehicle,
		Date:         date,
		Odometer:     odometer,
		Liters:       40,
		CostPerLiter: 100,
		TotalCost:    4000,
		FuelType:     models.FuelTypeFull,
	}
}

func sampleExport() *models.FuelExport {
	vehicle := primitive.NewObjectID()
	april := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	return &models.FuelExport{
		GeneratedAt: time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC),
		Vehicle:     &models.VehicleSummary{ID: vehicle, Name: "Axio"},
		Fuel: []*models.FuelEntry{
			fullEntry(vehicle, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), 1000),
			fullEntry(vehicle, time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC), 1500),
			fullEntry(vehicle, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), 2000),
		},
		Maintenance: []*models.MaintenanceCost{
			{ID: primitive.NewObjectID(), VehicleID: vehicle, Date: april, Cost: 3000, Category: models.MaintenanceCategoryOilChange},
			{ID: primitive.NewObjectID(), VehicleID: vehicle, Date: april, Cost: 1000, Category: models.MaintenanceCategoryBrakes},
		},
	}
}

func writeExport(t *testing.T, export *models.FuelExport) string {
	t.Helper()
	body, err := json.Marshal(export)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func run(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp("test", bytes.NewReader(stdin), &out)
	err := app.Execute(append(args, "--no-color"))
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	path := writeExport(t, sampleExport())

	out, err := run(t, nil, "stats", "-f", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Fuel statistics - Axio")
	assert.Contains(t, out, "12000.00")
	assert.Contains(t, out, "1000.00 km")
	assert.Contains(t, out, "16000.00")
	assert.Contains(t, out, "Efficiency: Average")
}

func TestStatsCommand_ReadsStdin(t *testing.T) {
	export := sampleExport()
	export.Vehicle = nil
	body, err := json.Marshal(export)
	require.NoError(t, err)

	out, err := run(t, body, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Fuel statistics - All vehicles")
}

func TestMonthlyCommand(t *testing.T) {
	path := writeExport(t, sampleExport())

	t.Run("DefaultsToNewestYear", func(t *testing.T) {
		out, err := run(t, nil, "monthly", "-f", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Monthly ledger 2024")
		assert.Contains(t, out, "January")
		assert.Contains(t, out, "February")
	})

	t.Run("SingleMonth", func(t *testing.T) {
		out, err := run(t, nil, "monthly", "-f", path, "--year", "2024", "--month", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "February")
		assert.NotContains(t, out, "January")
	})

	t.Run("EmptyYear", func(t *testing.T) {
		out, err := run(t, nil, "monthly", "-f", path, "--year", "2019")
		require.NoError(t, err)
		assert.Contains(t, out, "No fuel entries in this period")
	})

	t.Run("InvalidMonth", func(t *testing.T) {
		_, err := run(t, nil, "monthly", "-f", path, "--month", "13")
		assert.EqualError(t, err, "month must be between 1 and 12")
	})
}

func TestMaintenanceCommand(t *testing.T) {
	path := writeExport(t, sampleExport())

	out, err := run(t, nil, "maintenance", "-f", path, "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, models.MaintenanceCategoryOilChange)
	assert.NotContains(t, out, models.MaintenanceCategoryBrakes)
	assert.Contains(t, out, "2024-04")
	assert.Contains(t, out, "Total: 4000.00 over 2 entries (average 2000.00)")
}

func TestLoadExport_Errors(t *testing.T) {
	_, err := run(t, nil, "stats", "-f", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to open export")

	_, err = run(t, []byte("not json"), "stats")
	assert.ErrorContains(t, err, "failed to decode export")
}
