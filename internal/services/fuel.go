package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fuel-tracker/internal/ledger"
	"fuel-tracker/internal/models"
	"fuel-tracker/internal/repository"
	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/database"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FuelService struct {
	cacheSupport
	fuel        FuelStore
	vehicles    VehicleStore
	maintenance MaintenanceStore
	tx          database.Transactor
	log         *log.Entry
}

func NewFuelService(fuel FuelStore, vehicles VehicleStore, maintenance MaintenanceStore, tx database.Transactor) *FuelService {
	return &FuelService{
		cacheSupport: newCacheSupport(),
		fuel:         fuel,
		vehicles:     vehicles,
		maintenance:  maintenance,
		tx:           tx,
		log:          logger.For(logger.ComponentFuel),
	}
}

// FuelEntryRequest is the body of both create and update. FuelType defaults
// to FULL.
type FuelEntryRequest struct {
	VehicleID       string          `json:"vehicleId" validate:"required"`
	Date            time.Time       `json:"date" validate:"required"`
	Odometer        float64         `json:"odometer" validate:"required,gt=0"`
	Liters          float64         `json:"liters" validate:"required,gt=0"`
	CostPerLiter    float64         `json:"costPerLiter" validate:"required,gt=0"`
	TotalCost       float64         `json:"totalCost" validate:"required,gt=0"`
	FuelType        models.FuelType `json:"fuelType,omitempty" validate:"omitempty,oneof=FULL PARTIAL"`
	ParentEntry     string          `json:"parentEntry,omitempty"`
	OdometerExtraKm *float64        `json:"odometerExtraKm,omitempty" validate:"omitempty,gte=0"`
	Location        string          `json:"location,omitempty" validate:"max=200"`
	Notes           string          `json:"notes,omitempty" validate:"max=1000"`
}

type FuelListResult struct {
	Entries []*models.FuelEntryView `json:"entries"`
	Stats   ledger.FuelStats        `json:"stats"`
}

type MonthlyResult struct {
	Year    int                        `json:"year"`
	Month   time.Month                 `json:"month"`
	Data    []ledger.MonthlyLedgerData `json:"data"`
	Periods ledger.Periods             `json:"periods"`
}

// monthlyYear is the cached, unfiltered form of a MonthlyResult.
type monthlyYear struct {
	Data    []ledger.MonthlyLedgerData `json:"data"`
	Periods ledger.Periods             `json:"periods"`
}

// List returns every entry of the scope newest first, FULL entries carrying
// their partials, together with the scope's statistics.
func (s *FuelService) List(ctx context.Context, userID, vehicleID string) (*FuelListResult, error) {
	filter, err := fuelFilter(userID, vehicleID)
	if err != nil {
		return nil, err
	}

	entries, err := s.fuel.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel entries: %w", err)
	}
	summaries, err := vehicleSummaries(ctx, s.vehicles, filter.UserID)
	if err != nil {
		return nil, err
	}

	_, partials := ledger.GroupPartials(entries)
	return &FuelListResult{
		Entries: entryViews(entries, partials, summaries),
		Stats:   ledger.ComputeStats(entries),
	}, nil
}

// FullEntries lists the FULL entries of the scope newest first, each with its
// partials. These are the entries a PARTIAL entry may be attached to.
func (s *FuelService) FullEntries(ctx context.Context, userID, vehicleID string) ([]*models.FuelEntryView, error) {
	filter, err := fuelFilter(userID, vehicleID)
	if err != nil {
		return nil, err
	}
	filter.FuelType = models.FuelTypeFull

	fulls, err := s.fuel.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list full entries: %w", err)
	}
	return s.withChildren(ctx, filter.UserID, fulls)
}

// History pages through the FULL entries of the scope newest first, folding
// each entry's partials in. It returns the page and the number of FULL
// entries in the scope.
func (s *FuelService) History(ctx context.Context, userID, vehicleID string, offset, limit int) ([]*models.FuelEntryView, int64, error) {
	filter, err := fuelFilter(userID, vehicleID)
	if err != nil {
		return nil, 0, err
	}
	filter.FuelType = models.FuelTypeFull

	fulls, total, err := s.fuel.FindPage(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page fuel history: %w", err)
	}
	views, err := s.withChildren(ctx, filter.UserID, fulls)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *FuelService) withChildren(ctx context.Context, userID primitive.ObjectID, fulls []*models.FuelEntry) ([]*models.FuelEntryView, error) {
	ids := make([]primitive.ObjectID, len(fulls))
	for i, entry := range fulls {
		ids[i] = entry.ID
	}

	children, err := s.fuel.FindChildren(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load partial entries: %w", err)
	}
	summaries, err := vehicleSummaries(ctx, s.vehicles, userID)
	if err != nil {
		return nil, err
	}

	_, partials := ledger.GroupPartials(children)
	return entryViews(fulls, partials, summaries), nil
}

func (s *FuelService) Stats(ctx context.Context, userID, vehicleID string) (ledger.FuelStats, error) {
	filter, err := fuelFilter(userID, vehicleID)
	if err != nil {
		return ledger.FuelStats{}, err
	}

	key := cache.ScopeKey("fuel_stats", userID, vehicleID)
	return cached(&s.cacheSupport, key, cache.DataTypeFuelStats, scopeTags(userID, vehicleID), func() (ledger.FuelStats, error) {
		defer timed(s.log, "fuel_stats", time.Now())
		entries, err := s.fuel.Find(ctx, filter)
		if err != nil {
			return ledger.FuelStats{}, fmt.Errorf("failed to load fuel entries: %w", err)
		}
		return ledger.ComputeStats(entries), nil
	})
}

// Monthly returns the monthly buckets of year, newest month first, narrowed
// to one month when month is 1-12. A zero year selects the current year.
func (s *FuelService) Monthly(ctx context.Context, userID, vehicleID string, year int, month time.Month) (*MonthlyResult, error) {
	filter, err := fuelFilter(userID, vehicleID)
	if err != nil {
		return nil, err
	}
	if month < 0 || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	key := cache.ScopeKey("fuel_monthly", userID, vehicleID, year)
	computed, err := cached(&s.cacheSupport, key, cache.DataTypeMonthly, scopeTags(userID, vehicleID), func() (monthlyYear, error) {
		defer timed(s.log, "fuel_monthly", time.Now())
		entries, err := s.fuel.Find(ctx, filter)
		if err != nil {
			return monthlyYear{}, fmt.Errorf("failed to load fuel entries: %w", err)
		}
		return monthlyYear{
			Data:    ledger.ComputeMonthly(entries, year),
			Periods: ledger.AvailablePeriods(entries),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &MonthlyResult{
		Year:    year,
		Month:   month,
		Data:    ledger.FilterMonth(computed.Data, month),
		Periods: computed.Periods,
	}, nil
}

func (s *FuelService) Create(ctx context.Context, userID string, req *FuelEntryRequest) (*models.FuelEntry, error) {
	entry, err := s.buildEntry(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if entry.IsPartial() {
		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			if err := s.checkParent(ctx, entry); err != nil {
				return err
			}
			if err := s.fuel.Touch(ctx, entry.UserID, *entry.ParentEntry); err != nil {
				return fmt.Errorf("failed to update parent entry: %w", err)
			}
			return s.fuel.Create(ctx, entry)
		})
	} else {
		err = s.fuel.Create(ctx, entry)
	}
	if err != nil {
		if errors.Is(err, ErrParentNotFound) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create fuel entry: %w", err)
	}

	s.invalidateScope(userID, entry.VehicleID.Hex())
	s.log.WithFields(log.Fields{
		logger.FieldUserID:    userID,
		logger.FieldVehicleID: entry.VehicleID.Hex(),
		logger.FieldEntryID:   entry.ID.Hex(),
	}).Info("Fuel entry created")
	return entry, nil
}

func (s *FuelService) Update(ctx context.Context, userID, entryID string, req *FuelEntryRequest) (*models.FuelEntry, error) {
	existing, err := s.findEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	entry, err := s.buildEntry(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt

	// An omitted odometerExtraKm keeps the stored correction; an explicit 0
	// clears it.
	if entry.IsPartial() && req.OdometerExtraKm == nil && existing.IsPartial() && existing.OdometerExtraKm != nil {
		extra := *existing.OdometerExtraKm
		entry.OdometerExtraKm = &extra
	}

	var updated *models.FuelEntry
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if entry.IsPartial() {
			if *entry.ParentEntry == entry.ID {
				return fmt.Errorf("%w: an entry cannot be its own parent", ErrValidation)
			}
			if err := s.checkParent(ctx, entry); err != nil {
				return err
			}
		}
		if err := s.checkChildrenStay(ctx, existing, entry); err != nil {
			return err
		}

		var err error
		updated, err = s.fuel.Update(ctx, entry)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrParentNotFound), errors.Is(err, ErrValidation):
			return nil, err
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to update fuel entry: %w", err)
	}

	s.invalidateScope(userID, existing.VehicleID.Hex())
	if existing.VehicleID != updated.VehicleID {
		s.invalidateScope(userID, updated.VehicleID.Hex())
	}
	return updated, nil
}

// Delete removes the entry; deleting a FULL entry also removes its partials.
func (s *FuelService) Delete(ctx context.Context, userID, entryID string) (int64, error) {
	existing, err := s.findEntry(ctx, userID, entryID)
	if err != nil {
		return 0, err
	}

	var deleted int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.fuel.DeleteWithChildren(ctx, existing.UserID, existing.ID)
		deleted = n
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrEntryNotFound
		}
		return 0, fmt.Errorf("failed to delete fuel entry: %w", err)
	}

	s.invalidateScope(userID, existing.VehicleID.Hex())
	s.log.WithFields(log.Fields{
		logger.FieldUserID:  userID,
		logger.FieldEntryID: entryID,
		"deleted":           deleted,
	}).Info("Fuel entry deleted")
	return deleted, nil
}

// Export collects the scope's fuel entries and maintenance costs into the
// document read by ledgerctl.
func (s *FuelService) Export(ctx context.Context, userID, vehicleID string) (*models.FuelExport, error) {
	filter, err := fuelFilter(userID, vehicleID)
	if err != nil {
		return nil, err
	}

	export := &models.FuelExport{GeneratedAt: time.Now().UTC()}
	if filter.VehicleID != nil {
		vehicle, err := s.vehicles.FindByID(ctx, filter.UserID, *filter.VehicleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrVehicleNotFound
			}
			return nil, fmt.Errorf("failed to find vehicle: %w", err)
		}
		summary := vehicle.Summary()
		export.Vehicle = &summary
	}

	if export.Fuel, err = s.fuel.Find(ctx, filter); err != nil {
		return nil, fmt.Errorf("failed to load fuel entries: %w", err)
	}
	if export.Maintenance, err = s.maintenance.Find(ctx, filter.UserID, filter.VehicleID); err != nil {
		return nil, fmt.Errorf("failed to load maintenance costs: %w", err)
	}
	if export.Fuel == nil {
		export.Fuel = []*models.FuelEntry{}
	}
	if export.Maintenance == nil {
		export.Maintenance = []*models.MaintenanceCost{}
	}
	return export, nil
}

func (s *FuelService) findEntry(ctx context.Context, userID, entryID string) (*models.FuelEntry, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	id, err := parseID("fuel entry", entryID)
	if err != nil {
		return nil, err
	}

	entry, err := s.fuel.FindByID(ctx, uid, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to find fuel entry: %w", err)
	}
	return entry, nil
}

// buildEntry validates the request against the user's vehicles and turns it
// into an entry without ids or timestamps.
func (s *FuelService) buildEntry(ctx context.Context, userID string, req *FuelEntryRequest) (*models.FuelEntry, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}
	vid, err := parseID("vehicle", req.VehicleID)
	if err != nil {
		return nil, err
	}

	fuelType := req.FuelType
	if fuelType == "" {
		fuelType = models.FuelTypeFull
	}
	if fuelType != models.FuelTypeFull && fuelType != models.FuelTypePartial {
		return nil, fmt.Errorf("%w: fuel type must be FULL or PARTIAL", ErrValidation)
	}
	if req.Odometer <= 0 || req.Liters <= 0 || req.CostPerLiter <= 0 || req.TotalCost <= 0 {
		return nil, fmt.Errorf("%w: all numeric values must be positive", ErrValidation)
	}
	if req.OdometerExtraKm != nil && *req.OdometerExtraKm < 0 {
		return nil, fmt.Errorf("%w: odometer extra km cannot be negative", ErrValidation)
	}

	if _, err := s.vehicles.FindByID(ctx, uid, vid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}

	entry := &models.FuelEntry{
		UserID:       uid,
		VehicleID:    vid,
		Date:         req.Date,
		Odometer:     req.Odometer,
		Liters:       req.Liters,
		CostPerLiter: req.CostPerLiter,
		TotalCost:    req.TotalCost,
		FuelType:     fuelType,
		Location:     strings.TrimSpace(req.Location),
		Notes:        strings.TrimSpace(req.Notes),
	}

	if fuelType == models.FuelTypePartial {
		if req.ParentEntry == "" {
			return nil, fmt.Errorf("%w: partial entries require a parent entry", ErrValidation)
		}
		parentID, err := parseID("parent entry", req.ParentEntry)
		if err != nil {
			return nil, err
		}
		entry.ParentEntry = &parentID
		if req.OdometerExtraKm != nil && *req.OdometerExtraKm > 0 {
			extra := *req.OdometerExtraKm
			entry.OdometerExtraKm = &extra
		}
	}

	return entry, nil
}

// checkParent requires the parent of a PARTIAL entry to be a FULL entry of
// the same user and vehicle.
func (s *FuelService) checkParent(ctx context.Context, entry *models.FuelEntry) error {
	parent, err := s.fuel.FindByID(ctx, entry.UserID, *entry.ParentEntry)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrParentNotFound
		}
		return fmt.Errorf("failed to find parent entry: %w", err)
	}
	if parent.VehicleID != entry.VehicleID {
		return ErrParentNotFound
	}
	if !parent.IsFull() {
		return fmt.Errorf("%w: parent entry must be a FULL entry", ErrValidation)
	}
	return nil
}

// checkChildrenStay keeps partials pointing at a FULL entry of their own
// vehicle: a FULL entry with partials cannot become PARTIAL or change vehicle.
func (s *FuelService) checkChildrenStay(ctx context.Context, existing, entry *models.FuelEntry) error {
	if !existing.IsFull() || (entry.IsFull() && entry.VehicleID == existing.VehicleID) {
		return nil
	}
	children, err := s.fuel.FindChildren(ctx, existing.UserID, []primitive.ObjectID{existing.ID})
	if err != nil {
		return fmt.Errorf("failed to find partial entries: %w", err)
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: entry has %d partial entries; delete or reassign them before changing its type or vehicle", ErrValidation, len(children))
	}
	return nil
}

func fuelFilter(userID, vehicleID string) (repository.FuelFilter, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return repository.FuelFilter{}, err
	}
	vid, err := parseScope(vehicleID)
	if err != nil {
		return repository.FuelFilter{}, err
	}
	return repository.FuelFilter{UserID: uid, VehicleID: vid}, nil
}

// entryViews keeps the order of entries. Attached partials are sorted by date.
func entryViews(entries []*models.FuelEntry, partials ledger.Partials, summaries map[primitive.ObjectID]*models.VehicleSummary) []*models.FuelEntryView {
	views := make([]*models.FuelEntryView, 0, len(entries))
	for _, entry := range entries {
		view := &models.FuelEntryView{
			FuelEntry: entry,
			Vehicle:   summaries[entry.VehicleID],
		}
		if entry.IsFull() {
			if children := partials[entry.ID]; len(children) > 0 {
				ledger.SortByDate(children)
				view.Partials = children
			}
		}
		views = append(views, view)
	}
	return views
}
