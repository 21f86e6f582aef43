package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"fuel-tracker/internal/ledger"
	"fuel-tracker/pkg/logger"

	"github.com/jung-kurt/gofpdf"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ReportService renders a vehicle's (or all vehicles') yearly ledger as PDF.
type ReportService struct {
	vehicles  *VehicleService
	fuel      *FuelService
	analytics *AnalyticsService
	settings  *SettingsService
	log       *log.Entry
}

func NewReportService(vehicles *VehicleService, fuel *FuelService, analytics *AnalyticsService, settings *SettingsService) *ReportService {
	return &ReportService{
		vehicles:  vehicles,
		fuel:      fuel,
		analytics: analytics,
		settings:  settings,
		log:       logger.For(logger.ComponentReport),
	}
}

type reportData struct {
	title       string
	currency    string
	year        int
	combined    ledger.CombinedAnalytics
	monthly     []ledger.MonthlyLedgerData
	maintenance ledger.MaintenanceCostStats
}

// PDF returns the report document and a file name for it.
func (s *ReportService) PDF(ctx context.Context, userID, vehicleID string, year int) ([]byte, string, error) {
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	data := reportData{title: "All vehicles", year: year}
	if vehicleID != "" {
		vehicle, err := s.vehicles.Get(ctx, userID, vehicleID)
		if err != nil {
			return nil, "", err
		}
		data.title = vehicle.Name
		if vehicle.LicensePlate != "" {
			data.title += " (" + vehicle.LicensePlate + ")"
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		settings, err := s.settings.Get(gctx, userID)
		if err != nil {
			return err
		}
		data.currency = settings.Currency
		return nil
	})
	g.Go(func() error {
		var err error
		data.combined, err = s.analytics.Combined(gctx, userID, vehicleID)
		return err
	})
	g.Go(func() error {
		monthly, err := s.fuel.Monthly(gctx, userID, vehicleID, year, 0)
		if err != nil {
			return err
		}
		data.monthly = monthly.Data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	data.maintenance = data.combined.Maintenance

	body, err := renderReport(data, time.Now())
	if err != nil {
		s.log.WithError(err).WithField(logger.FieldUserID, userID).Error("Failed to render report")
		return nil, "", fmt.Errorf("failed to render report: %w", err)
	}

	name := fmt.Sprintf("fuel-report-%d.pdf", year)
	if vehicleID != "" {
		name = fmt.Sprintf("fuel-report-%s-%d.pdf", vehicleID, year)
	}
	return body, name, nil
}

func renderReport(data reportData, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Fuel & Maintenance Report", false)
	pdf.AddPage()

	money := func(v float64) string {
		return fmt.Sprintf("%s %.2f", data.currency, v)
	}

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Fuel & Maintenance Report %d", data.year)), "", 1, "L", true, 0, "")
	pdf.SetTextColor(50, 50, 50)
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 8, tr("  "+data.title), "", 1, "L", true, 0, "")
	pdf.CellFormat(0, 6, "  Generated "+generatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	section := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 8, title)
		pdf.Ln(7)
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(3)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(50, 50, 50)
	}
	row := func(label, value string) {
		pdf.CellFormat(80, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}

	fuel := data.combined.Fuel
	section("Fuel")
	row("Entries", fmt.Sprintf("%d", fuel.TotalEntries))
	row("Total cost", money(fuel.TotalCost))
	row("Total liters", fmt.Sprintf("%.2f L", fuel.TotalLiters))
	row("Distance", fmt.Sprintf("%.0f km", fuel.TotalDistance))
	row("Average cost per liter", money(fuel.AverageCostPerLiter))
	row("Average consumption", fmt.Sprintf("%.2f L/100km", fuel.AverageConsumption))
	row("Best / worst consumption", fmt.Sprintf("%.2f / %.2f L/100km", fuel.BestConsumption, fuel.WorstConsumption))
	row("Mileage", fmt.Sprintf("%.2f km/L (%s)", fuel.MileagePerLiter, data.combined.EfficiencyRating))
	pdf.Ln(4)

	section("Running cost")
	row("Total vehicle cost", money(data.combined.TotalVehicleCost))
	row("Fuel cost per km", money(data.combined.FuelCostPerKm))
	row("Fuel / maintenance share", fmt.Sprintf("%.1f%% / %.1f%%", data.combined.FuelPercentage, data.combined.MaintenancePercentage))
	pdf.Ln(4)

	section(fmt.Sprintf("Monthly %d", data.year))
	if len(data.monthly) == 0 {
		pdf.Cell(0, 6, "No fuel entries this year.")
		pdf.Ln(6)
	} else {
		widths := []float64{30, 18, 32, 26, 28, 28, 28}
		headers := []string{"Month", "Entries", "Cost", "Liters", "Distance", "L/100km", "km/L"}
		pdf.SetFont("Arial", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, m := range data.monthly {
			cells := []string{
				m.Month,
				fmt.Sprintf("%d", m.TotalEntries),
				money(m.TotalCost),
				fmt.Sprintf("%.2f", m.TotalLiters),
				fmt.Sprintf("%.0f", m.TotalDistance),
				fmt.Sprintf("%.2f", m.AverageConsumption),
				fmt.Sprintf("%.2f", m.AverageMileage),
			}
			for i, c := range cells {
				pdf.CellFormat(widths[i], 6, tr(c), "", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	pdf.Ln(4)

	section("Maintenance")
	row("Entries", fmt.Sprintf("%d", data.maintenance.TotalEntries))
	row("Total cost", money(data.maintenance.TotalCost))
	row("Average cost", money(data.maintenance.AverageCost))
	for _, c := range ledger.TopCategories(data.maintenance, len(data.maintenance.Categories)) {
		row("  "+c.Category, fmt.Sprintf("%s (%.1f%%)", money(c.Cost), c.Percentage))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
