package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"fuel-tracker/internal/ledger"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func (a *App) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show fuel statistics and the combined cost breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := a.loadExport(cmd)
			if err != nil {
				return err
			}

			fuel := ledger.ComputeStats(export.Fuel)
			combined := ledger.Combine(fuel, ledger.ComputeMaintenanceStats(export.Maintenance))

			a.heading(export, "Fuel statistics")
			err = a.table(pterm.TableData{
				{"Metric", "Value"},
				{"Entries", fmt.Sprintf("%d", fuel.TotalEntries)},
				{"Total fuel cost", money(fuel.TotalCost)},
				{"Total liters", fmt.Sprintf("%.2f L", fuel.TotalLiters)},
				{"Total distance", fmt.Sprintf("%.2f km", fuel.TotalDistance)},
				{"Average cost per liter", money(fuel.AverageCostPerLiter)},
				{"Average consumption", fmt.Sprintf("%.2f L/100km", fuel.AverageConsumption)},
				{"Best consumption", fmt.Sprintf("%.2f L/100km", fuel.BestConsumption)},
				{"Worst consumption", fmt.Sprintf("%.2f L/100km", fuel.WorstConsumption)},
				{"Mileage", fmt.Sprintf("%.2f km/L", fuel.MileagePerLiter)},
				{"Maintenance cost", money(combined.Maintenance.TotalCost)},
				{"Total vehicle cost", money(combined.TotalVehicleCost)},
				{"Fuel cost per km", money(combined.FuelCostPerKm)},
				{"Fuel share", fmt.Sprintf("%.1f%%", combined.FuelPercentage)},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Efficiency: %s\n", ratingColor(combined.EfficiencyRating).Sprint(combined.EfficiencyRating))
			return nil
		},
	}
}

func (a *App) monthlyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Show the monthly fuel ledger of a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")
			if month < 0 || month > 12 {
				return errors.New("month must be between 1 and 12")
			}

			export, err := a.loadExport(cmd)
			if err != nil {
				return err
			}

			// Default to the newest year with data.
			if year == 0 {
				year = time.Now().UTC().Year()
				if periods := ledger.AvailablePeriods(export.Fuel); len(periods.Years) > 0 {
					year = periods.Years[0]
				}
			}

			data := ledger.FilterMonth(ledger.ComputeMonthly(export.Fuel, year), time.Month(month))

			a.heading(export, fmt.Sprintf("Monthly ledger %d", year))
			if len(data) == 0 {
				color.New(color.FgYellow).Fprintln(a.out, "No fuel entries in this period")
				return nil
			}

			rows := pterm.TableData{{"Month", "Entries", "Liters", "Distance", "Cost", "L/100km", "km/L"}}
			for _, m := range data {
				rows = append(rows, []string{
					m.Month,
					fmt.Sprintf("%d", m.TotalEntries),
					fmt.Sprintf("%.2f", m.TotalLiters),
					fmt.Sprintf("%.2f", m.TotalDistance),
					money(m.TotalCost),
					fmt.Sprintf("%.2f", m.AverageConsumption),
					fmt.Sprintf("%.2f", m.AverageMileage),
				})
			}
			return a.table(rows)
		},
	}
	cmd.Flags().IntP("year", "y", 0, "Year to show (default: newest year in the export)")
	cmd.Flags().IntP("month", "m", 0, "Restrict to one month (1-12)")
	return cmd
}

func (a *App) maintenanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Show maintenance costs by category and month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetInt("top")

			export, err := a.loadExport(cmd)
			if err != nil {
				return err
			}
			stats := ledger.ComputeMaintenanceStats(export.Maintenance)

			a.heading(export, "Maintenance costs")
			if stats.TotalEntries == 0 {
				color.New(color.FgYellow).Fprintln(a.out, "No maintenance costs recorded")
				return nil
			}

			if top <= 0 {
				top = len(stats.Categories)
			}
			rows := pterm.TableData{{"Category", "Cost", "Share"}}
			for _, c := range ledger.TopCategories(stats, top) {
				rows = append(rows, []string{c.Category, money(c.Cost), fmt.Sprintf("%.1f%%", c.Percentage)})
			}
			if err := a.table(rows); err != nil {
				return err
			}

			months := make([]string, 0, len(stats.MonthlyCosts))
			for month := range stats.MonthlyCosts {
				months = append(months, month)
			}
			sort.Strings(months)

			rows = pterm.TableData{{"Month", "Cost"}}
			for _, month := range months {
				rows = append(rows, []string{month, money(stats.MonthlyCosts[month])})
			}
			if err := a.table(rows); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Total: %s over %d entries (average %s)\n",
				money(stats.TotalCost), stats.TotalEntries, money(stats.AverageCost))
			return nil
		},
	}
	cmd.Flags().IntP("top", "t", 5, "Number of categories to list")
	return cmd
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func ratingColor(rating string) *color.Color {
	switch rating {
	case ledger.RatingExcellent, ledger.RatingGood:
		return color.New(color.FgGreen, color.Bold)
	case ledger.RatingAverage:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
