package ledger

import (
	"sort"
	"time"

	"fuel-tracker/internal/models"
)

// MonthlyLedgerData is one (year, month) bucket of fuel activity. Mileage is
// distance per liter.
type MonthlyLedgerData struct {
	Month               string     `json:"month"`
	MonthNumber         time.Month `json:"monthNumber"`
	Year                int        `json:"year"`
	TotalEntries        int        `json:"totalEntries"`
	TotalCost           float64    `json:"totalCost"`
	TotalLiters         float64    `json:"totalLiters"`
	TotalDistance       float64    `json:"totalDistance"`
	AverageCostPerLiter float64    `json:"averageCostPerLiter"`
	AverageConsumption  float64    `json:"averageConsumption"`
	BestMileage         float64    `json:"bestMileage"`
	WorstMileage        float64    `json:"worstMileage"`
	AverageMileage      float64    `json:"averageMileage"`
}

// Periods lists the years that have entries (newest first) and, per year,
// the months that have entries (in calendar order).
type Periods struct {
	Years  []int                `json:"years"`
	Months map[int][]time.Month `json:"months"`
}

// ComputeMonthly buckets the entries dated in year by calendar month (UTC)
// and returns the buckets newest month first.
//
// The last FULL entry of the previous year, when present, is replayed first
// as a baseline for the first FULL entry of the year. It never counts toward
// any bucket. Baselines include the odometerExtraKm of their partials, as in
// ComputeStats.
func ComputeMonthly(entries []*models.FuelEntry, year int) []MonthlyLedgerData {
	var inYear []*models.FuelEntry
	var prevYearFulls []*models.FuelEntry
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		switch entry.Date.UTC().Year() {
		case year:
			inYear = append(inYear, entry)
		case year - 1:
			if entry.IsFull() {
				prevYearFulls = append(prevYearFulls, entry)
			}
		}
	}

	SortByDate(inYear)
	SortByDate(prevYearFulls)

	sequence := inYear
	if n := len(prevYearFulls); n > 0 {
		sequence = append([]*models.FuelEntry{prevYearFulls[n-1]}, inYear...)
	}

	_, partials := GroupPartials(entries)
	buckets := make(map[time.Month]*MonthlyLedgerData)
	var lastFull *models.FuelEntry
	accumulatedFuel := 0.0

	for _, entry := range sequence {
		date := entry.Date.UTC()

		var bucket *MonthlyLedgerData
		if date.Year() == year {
			bucket = buckets[date.Month()]
			if bucket == nil {
				bucket = &MonthlyLedgerData{
					Month:       date.Month().String(),
					MonthNumber: date.Month(),
					Year:        year,
				}
				buckets[date.Month()] = bucket
			}
			bucket.TotalEntries++
			bucket.TotalCost += entry.TotalCost
			bucket.TotalLiters += entry.Liters
		}

		if !entry.IsFull() {
			accumulatedFuel += entry.Liters
			continue
		}

		if lastFull != nil && bucket != nil {
			distance := entry.Odometer - partials.EffectiveOdometer(lastFull)
			fuelConsumed := accumulatedFuel + entry.Liters
			if distance > 0 && fuelConsumed > 0 {
				mileage := distance / fuelConsumed
				bucket.TotalDistance += distance
				if bucket.AverageMileage == 0 {
					bucket.AverageMileage = mileage
					bucket.BestMileage = mileage
					bucket.WorstMileage = mileage
				} else {
					n := float64(bucket.TotalEntries)
					bucket.AverageMileage = (bucket.AverageMileage*(n-1) + mileage) / n
					if mileage > bucket.BestMileage {
						bucket.BestMileage = mileage
					}
					if mileage < bucket.WorstMileage {
						bucket.WorstMileage = mileage
					}
				}
			}
		}

		lastFull = entry
		accumulatedFuel = 0
	}

	result := make([]MonthlyLedgerData, 0, len(buckets))
	for _, bucket := range buckets {
		if bucket.TotalDistance > 0 && bucket.TotalLiters > 0 {
			bucket.AverageConsumption = bucket.TotalLiters / bucket.TotalDistance * 100
		}
		bucket.AverageCostPerLiter = safeDiv(bucket.TotalCost, bucket.TotalLiters)
		result = append(result, *bucket)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].MonthNumber > result[j].MonthNumber
	})

	return result
}

// FilterMonth keeps only the bucket for month. A zero month keeps everything.
func FilterMonth(data []MonthlyLedgerData, month time.Month) []MonthlyLedgerData {
	if month == 0 {
		return data
	}
	filtered := make([]MonthlyLedgerData, 0, 1)
	for _, d := range data {
		if d.MonthNumber == month {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// AvailablePeriods reports which years and months have fuel entries.
func AvailablePeriods(entries []*models.FuelEntry) Periods {
	seen := make(map[int]map[time.Month]bool)
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		date := entry.Date.UTC()
		if seen[date.Year()] == nil {
			seen[date.Year()] = make(map[time.Month]bool)
		}
		seen[date.Year()][date.Month()] = true
	}

	periods := Periods{
		Years:  make([]int, 0, len(seen)),
		Months: make(map[int][]time.Month, len(seen)),
	}
	for year, months := range seen {
		periods.Years = append(periods.Years, year)
		list := make([]time.Month, 0, len(months))
		for m := range months {
			list = append(list, m)
		}
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		periods.Months[year] = list
	}
	sort.Sort(sort.Reverse(sort.IntSlice(periods.Years)))

	return periods
}
