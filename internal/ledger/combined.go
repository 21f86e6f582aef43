package ledger

import "sort"

// Efficiency ratings returned by EfficiencyRating.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingAverage   = "Average"
	RatingPoor      = "Poor"
)

const topCategoryCount = 3

// CategoryCost is one maintenance category with its share of the total.
type CategoryCost struct {
	Category   string  `json:"category"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// CombinedAnalytics joins fuel and maintenance figures into whole-vehicle
// running-cost indicators.
type CombinedAnalytics struct {
	Fuel                  FuelStats            `json:"fuel"`
	Maintenance           MaintenanceCostStats `json:"maintenance"`
	TotalVehicleCost      float64              `json:"totalVehicleCost"`
	FuelCostPerKm         float64              `json:"fuelCostPerKm"`
	DistancePerCost       float64              `json:"distancePerCost"`
	FuelPercentage        float64              `json:"fuelPercentage"`
	MaintenancePercentage float64              `json:"maintenancePercentage"`
	ConsumptionSpread     float64              `json:"consumptionSpread"`
	EfficiencyRating      string               `json:"efficiencyRating"`
	TopCategories         []CategoryCost       `json:"topCategories"`
}

// Combine derives the combined indicators; every ratio degrades to 0.
func Combine(fuel FuelStats, maintenance MaintenanceCostStats) CombinedAnalytics {
	total := fuel.TotalCost + maintenance.TotalCost

	analytics := CombinedAnalytics{
		Fuel:                  fuel,
		Maintenance:           maintenance,
		TotalVehicleCost:      total,
		FuelCostPerKm:         safeDiv(fuel.TotalCost, fuel.TotalDistance),
		DistancePerCost:       safeDiv(fuel.TotalDistance, fuel.TotalCost),
		FuelPercentage:        safeDiv(fuel.TotalCost, total) * 100,
		MaintenancePercentage: safeDiv(maintenance.TotalCost, total) * 100,
		EfficiencyRating:      EfficiencyRating(fuel.MileagePerLiter),
		TopCategories:         TopCategories(maintenance, topCategoryCount),
	}

	if fuel.BestConsumption > 0 && fuel.WorstConsumption > 0 {
		analytics.ConsumptionSpread = (fuel.WorstConsumption - fuel.BestConsumption) / fuel.WorstConsumption * 100
	}

	return analytics
}

// EfficiencyRating grades mileage in distance units per liter.
func EfficiencyRating(mileagePerLiter float64) string {
	switch {
	case mileagePerLiter >= 15:
		return RatingExcellent
	case mileagePerLiter >= 12:
		return RatingGood
	case mileagePerLiter >= 8:
		return RatingAverage
	default:
		return RatingPoor
	}
}

// TopCategories returns up to n categories by descending cost, ties by name.
func TopCategories(stats MaintenanceCostStats, n int) []CategoryCost {
	categories := make([]CategoryCost, 0, len(stats.Categories))
	for name, cost := range stats.Categories {
		categories = append(categories, CategoryCost{
			Category:   name,
			Cost:       cost,
			Percentage: safeDiv(cost, stats.TotalCost) * 100,
		})
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Cost != categories[j].Cost {
			return categories[i].Cost > categories[j].Cost
		}
		return categories[i].Category < categories[j].Category
	})

	if len(categories) > n {
		categories = categories[:n]
	}
	return categories
}
