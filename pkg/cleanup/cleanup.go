package cleanup

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fuel-tracker/pkg/logger"
)

// OrphanStore deletes PARTIAL fuel entries whose FULL parent is gone.
type OrphanStore interface {
	DeleteOrphanedPartials(ctx context.Context) (int64, error)
}

type CleanupService struct {
	store    OrphanStore
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

func NewCleanupService(store OrphanStore, interval time.Duration) *CleanupService {
	return &CleanupService{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start sweeps once immediately and then on every tick until Stop is called.
// It blocks, so run it in its own goroutine.
func (s *CleanupService) Start() {
	s.started.Store(true)
	defer close(s.done)
	log := logger.For(logger.ComponentCleanup)
	log.WithField("interval", s.interval.String()).Info("Starting orphaned partial entry cleanup")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			log.Info("Stopping orphaned partial entry cleanup")
			return
		}
	}
}

// Stop ends the loop and, if it is running, waits for it to return.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *CleanupService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.store.DeleteOrphanedPartials(ctx)
	if err != nil {
		logger.For(logger.ComponentCleanup).WithError(err).Error("Failed to delete orphaned partial entries")
		return
	}

	if count > 0 {
		logger.For(logger.ComponentCleanup).WithField("deleted", count).Info("Deleted orphaned partial entries")
	}
}
