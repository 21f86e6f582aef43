package services

import (
	"context"
	"time"

	"fuel-tracker/internal/ledger"
	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService joins fuel and maintenance statistics into running-cost
// indicators for one vehicle or for all of a user's vehicles.
type AnalyticsService struct {
	cacheSupport
	fuel        *FuelService
	maintenance *MaintenanceService
	log         *log.Entry
}

func NewAnalyticsService(fuel *FuelService, maintenance *MaintenanceService) *AnalyticsService {
	return &AnalyticsService{
		cacheSupport: newCacheSupport(),
		fuel:         fuel,
		maintenance:  maintenance,
		log:          logger.For(logger.ComponentAnalytics),
	}
}

func (s *AnalyticsService) Combined(ctx context.Context, userID, vehicleID string) (ledger.CombinedAnalytics, error) {
	if _, err := parseID("user", userID); err != nil {
		return ledger.CombinedAnalytics{}, err
	}
	if _, err := parseScope(vehicleID); err != nil {
		return ledger.CombinedAnalytics{}, err
	}

	key := cache.ScopeKey("analytics", userID, vehicleID)
	return cached(&s.cacheSupport, key, cache.DataTypeAnalytics, scopeTags(userID, vehicleID), func() (ledger.CombinedAnalytics, error) {
		defer timed(s.log, "analytics", time.Now())

		var (
			fuel        ledger.FuelStats
			maintenance ledger.MaintenanceCostStats
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			fuel, err = s.fuel.Stats(gctx, userID, vehicleID)
			return err
		})
		g.Go(func() error {
			var err error
			maintenance, err = s.maintenance.Stats(gctx, userID, vehicleID)
			return err
		})
		if err := g.Wait(); err != nil {
			return ledger.CombinedAnalytics{}, err
		}

		return ledger.Combine(fuel, maintenance), nil
	})
}
