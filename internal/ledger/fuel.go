// Package ledger computes fuel and maintenance statistics from entries that
// are already loaded in memory. Every function here is pure: no I/O, no
// errors, and numeric edge cases degrade to zero.
package ledger

import (
	"bytes"
	"sort"

	"fuel-tracker/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelStats summarises a set of fuel entries for one vehicle or for all of a
// user's vehicles. Consumption is in liters per 100 distance units, mileage
// in distance units per liter.
type FuelStats struct {
	TotalEntries        int     `json:"totalEntries"`
	TotalCost           float64 `json:"totalCost"`
	TotalLiters         float64 `json:"totalLiters"`
	TotalDistance       float64 `json:"totalDistance"`
	AverageCostPerLiter float64 `json:"averageCostPerLiter"`
	AverageConsumption  float64 `json:"averageConsumption"`
	BestConsumption     float64 `json:"bestConsumption"`
	WorstConsumption    float64 `json:"worstConsumption"`
	MileagePerLiter     float64 `json:"mileagePerLiter"`
	TotalMileage        float64 `json:"totalMileage"`
}

// Partials maps a FULL entry id to the PARTIAL entries that top it up.
type Partials map[primitive.ObjectID][]*models.FuelEntry

// ComputeStats aggregates an unordered slice of fuel entries.
//
// Money and volume totals count every entry once. Distance and consumption
// come from consecutive FULL entries in date order: the distance of a pair is
// the later odometer minus the earlier entry's effective odometer (its
// reading plus the odometerExtraKm of its partials), and the consumption of
// a pair is the earlier entry's combined liters over that distance.
func ComputeStats(entries []*models.FuelEntry) FuelStats {
	var stats FuelStats

	for _, entry := range entries {
		if entry == nil {
			continue
		}
		stats.TotalEntries++
		stats.TotalCost += entry.TotalCost
		stats.TotalLiters += entry.Liters
	}

	fulls, partials := GroupPartials(entries)

	var samples []float64
	for i := 1; i < len(fulls); i++ {
		prev, curr := fulls[i-1], fulls[i]

		distance := curr.Odometer - partials.EffectiveOdometer(prev)
		if distance <= 0 {
			continue
		}
		stats.TotalDistance += distance

		consumption := partials.CombinedLiters(prev) / distance * 100
		if consumption > 0 {
			samples = append(samples, consumption)
		}
	}

	if len(samples) > 0 {
		best, worst, sum := samples[0], samples[0], 0.0
		for _, s := range samples {
			sum += s
			if s < best {
				best = s
			}
			if s > worst {
				worst = s
			}
		}
		stats.AverageConsumption = sum / float64(len(samples))
		stats.BestConsumption = best
		stats.WorstConsumption = worst
	}

	stats.MileagePerLiter = safeDiv(stats.TotalDistance, stats.TotalLiters)
	stats.AverageCostPerLiter = safeDiv(stats.TotalCost, stats.TotalLiters)
	stats.TotalMileage = stats.TotalDistance

	return stats
}

// GroupPartials splits entries into FULL entries sorted by date and an index
// of PARTIAL entries keyed by their parent id. Partials without a parent are
// left out of the index.
func GroupPartials(entries []*models.FuelEntry) ([]*models.FuelEntry, Partials) {
	var fulls []*models.FuelEntry
	partials := make(Partials)

	for _, entry := range entries {
		if entry == nil {
			continue
		}
		switch {
		case entry.IsFull():
			fulls = append(fulls, entry)
		case entry.ParentEntry != nil:
			partials[*entry.ParentEntry] = append(partials[*entry.ParentEntry], entry)
		}
	}

	SortByDate(fulls)
	return fulls, partials
}

// SortByDate orders entries by date ascending. Entries with the same
// timestamp are ordered by id, which follows creation order for ObjectIDs;
// entries that share both keep their input order.
func SortByDate(entries []*models.FuelEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})
}

// CombinedLiters is the entry's own liters plus those of its partials.
func (p Partials) CombinedLiters(full *models.FuelEntry) float64 {
	total := full.Liters
	for _, child := range p[full.ID] {
		total += child.Liters
	}
	return total
}

// CombinedCost is the entry's own cost plus that of its partials.
func (p Partials) CombinedCost(full *models.FuelEntry) float64 {
	total := full.TotalCost
	for _, child := range p[full.ID] {
		total += child.TotalCost
	}
	return total
}

// EffectiveOdometer shifts a FULL entry's reading by the extra kilometres
// recorded on its partials.
func (p Partials) EffectiveOdometer(full *models.FuelEntry) float64 {
	odometer := full.Odometer
	for _, child := range p[full.ID] {
		odometer += child.ExtraKm()
	}
	return odometer
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
