package services

import (
	"context"
	"errors"
	"fmt"

	"fuel-tracker/internal/models"
	"fuel-tracker/internal/repository"
	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SettingsService struct {
	cacheSupport
	settings SettingsStore
	log      *log.Entry
}

func NewSettingsService(settings SettingsStore) *SettingsService {
	return &SettingsService{
		cacheSupport: newCacheSupport(),
		settings:     settings,
		log:          logger.For(logger.ComponentSettings),
	}
}

// UpdateSettingsRequest is a partial update: empty or zero fields keep the
// stored value.
type UpdateSettingsRequest struct {
	Currency       string `json:"currency,omitempty" validate:"omitempty,len=3"`
	DateFormat     string `json:"dateFormat,omitempty" validate:"omitempty,oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	DistanceUnit   string `json:"distanceUnit,omitempty" validate:"omitempty,oneof=km mi"`
	VolumeUnit     string `json:"volumeUnit,omitempty" validate:"omitempty,oneof=L gal"`
	EntriesPerPage int    `json:"entriesPerPage,omitempty" validate:"omitempty,min=5,max=100"`
	Timezone       string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

func settingsKey(userID string) string {
	return "settings:" + userID
}

// Get returns the user's settings, creating the defaults on first use.
func (s *SettingsService) Get(ctx context.Context, userID string) (*models.Settings, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	return cached(&s.cacheSupport, settingsKey(userID), cache.DataTypeSettings, []string{cache.UserTag(userID)}, func() (*models.Settings, error) {
		return s.load(ctx, uid)
	})
}

func (s *SettingsService) load(ctx context.Context, userID primitive.ObjectID) (*models.Settings, error) {
	settings, err := s.settings.FindByUser(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings, err = s.settings.Upsert(ctx, models.DefaultSettings(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	s.log.WithField(logger.FieldUserID, userID.Hex()).Debug("Default settings created")
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID string, req *UpdateSettingsRequest) (*models.Settings, error) {
	uid, err := parseID("user", userID)
	if err != nil {
		return nil, err
	}

	current, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}

	if req.Currency != "" {
		current.Currency = req.Currency
	}
	if req.DateFormat != "" {
		current.DateFormat = req.DateFormat
	}
	if req.DistanceUnit != "" {
		current.DistanceUnit = req.DistanceUnit
	}
	if req.VolumeUnit != "" {
		current.VolumeUnit = req.VolumeUnit
	}
	if req.EntriesPerPage > 0 {
		current.EntriesPerPage = req.EntriesPerPage
	}
	if req.Timezone != "" {
		current.Timezone = req.Timezone
	}

	updated, err := s.settings.Upsert(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.forget(settingsKey(userID))
	return updated, nil
}

// EntriesPerPage returns the user's page size, falling back to the default
// when the settings cannot be read.
func (s *SettingsService) EntriesPerPage(ctx context.Context, userID string) int {
	settings, err := s.Get(ctx, userID)
	if err != nil || settings.EntriesPerPage <= 0 {
		if err != nil {
			s.log.WithError(err).WithField(logger.FieldUserID, userID).Warn("Falling back to default page size")
		}
		return models.DefaultSettings(primitive.NilObjectID).EntriesPerPage
	}
	return settings.EntriesPerPage
}
