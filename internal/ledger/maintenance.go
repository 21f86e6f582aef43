package ledger

import (
	"fuel-tracker/internal/models"
)

// MonthKeyLayout formats the keys of MaintenanceCostStats.MonthlyCosts.
const MonthKeyLayout = "2006-01"

// MaintenanceCostStats totals maintenance spending by category and by month.
type MaintenanceCostStats struct {
	TotalEntries int                `json:"totalEntries"`
	TotalCost    float64            `json:"totalCost"`
	AverageCost  float64            `json:"averageCost"`
	Categories   map[string]float64 `json:"categories"`
	MonthlyCosts map[string]float64 `json:"monthlyCosts"`
}

// ComputeMaintenanceStats sums maintenance costs overall, per category and
// per UTC calendar month.
func ComputeMaintenanceStats(entries []*models.MaintenanceCost) MaintenanceCostStats {
	stats := MaintenanceCostStats{
		Categories:   make(map[string]float64),
		MonthlyCosts: make(map[string]float64),
	}

	for _, entry := range entries {
		if entry == nil {
			continue
		}
		stats.TotalEntries++
		stats.TotalCost += entry.Cost
		stats.Categories[entry.Category] += entry.Cost
		stats.MonthlyCosts[entry.Date.UTC().Format(MonthKeyLayout)] += entry.Cost
	}

	stats.AverageCost = safeDiv(stats.TotalCost, float64(stats.TotalEntries))
	return stats
}
