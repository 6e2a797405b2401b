package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/models"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
)

type settingsStore interface {
	Get(ctx context.Context) (*models.GlobalSettings, error)
	Upsert(ctx context.Context, settings *models.GlobalSettings) error
}

type projectionInvalidator interface {
	InvalidatePublicCache(ctx context.Context)
}

// SettingsService manages the single-row operational configuration.
type SettingsService struct {
	repo      settingsStore
	projector projectionInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsStore, projector projectionInvalidator, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, projector: projector, validator: validate, logger: logger}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (*models.GlobalSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update applies the provided fields and returns the stored settings. The
// forward window bounds how far occurrences are materialized, so any change
// invalidates cached public projections.
func (s *SettingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (*models.GlobalSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	if req.ForwardWindowMonths != nil {
		settings.ForwardWindowMonths = *req.ForwardWindowMonths
	}
	if req.DefaultEventDurationMinutes != nil {
		settings.DefaultEventDurationMinutes = *req.DefaultEventDurationMinutes
	}
	if req.ClaimsPaused != nil {
		settings.ClaimsPaused = *req.ClaimsPaused
	}
	if req.BrandTitle != nil {
		settings.BrandTitle = *req.BrandTitle
	}
	if req.BrandLink != nil {
		settings.BrandLink = *req.BrandLink
	}

	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist settings")
	}

	if s.projector != nil {
		s.projector.InvalidatePublicCache(ctx)
	}
	s.logger.Info("global settings updated",
		zap.Int("forward_window_months", settings.ForwardWindowMonths),
		zap.Bool("claims_paused", settings.ClaimsPaused))
	return settings, nil
}
