package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/models"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
)

type seriesStore interface {
	FindByID(ctx context.Context, id string) (*models.EventSeries, error)
	ListAll(ctx context.Context) ([]models.EventSeries, error)
	Create(ctx context.Context, series *models.EventSeries) error
	Update(ctx context.Context, series *models.EventSeries) error
	SetPaused(ctx context.Context, id string, paused bool) error
	Delete(ctx context.Context, id string) error
}

type seriesSettingsReader interface {
	Get(ctx context.Context) (*models.GlobalSettings, error)
}

// SeriesService manages recurring event templates. The schedule shape of a
// series (frequency, weekday, ordinal, start date) is fixed at creation;
// per-occurrence changes go through the override table instead.
type SeriesService struct {
	repo      seriesStore
	settings  seriesSettingsReader
	projector projectionInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSeriesService constructs a SeriesService.
func NewSeriesService(repo seriesStore, settings seriesSettingsReader, projector projectionInvalidator, validate *validator.Validate, logger *zap.Logger) *SeriesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SeriesService{repo: repo, settings: settings, projector: projector, validator: validate, logger: logger}
}

// Create stores a new series template. Monthly series require an ordinal;
// an omitted duration falls back to the configured default.
func (s *SeriesService) Create(ctx context.Context, req dto.CreateSeriesRequest, actorID string) (*models.EventSeries, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}
	if req.Frequency == models.FrequencyMonthly && req.WeekdayOrdinal == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "monthly series require a weekday ordinal")
	}
	if req.EndDateUTC != nil && *req.EndDateUTC <= req.StartDateUTC {
		return nil, appErrors.Clone(appErrors.ErrValidation, "series must end after it starts")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
		}
		duration = settings.DefaultEventDurationMinutes
	}

	series := &models.EventSeries{
		Title:           req.Title,
		Notes:           req.Notes,
		Link:            req.Link,
		Color:           req.Color,
		Frequency:       req.Frequency,
		Weekday:         req.Weekday,
		WeekdayOrdinal:  req.WeekdayOrdinal,
		StartDateUTC:    req.StartDateUTC,
		EndDateUTC:      req.EndDateUTC,
		DurationMinutes: duration,
		CreatedBy:       actorID,
	}
	if err := s.repo.Create(ctx, series); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create series")
	}

	s.invalidate(ctx)
	s.logger.Info("series created",
		zap.String("series_id", series.ID),
		zap.String("frequency", string(series.Frequency)))
	return series, nil
}

// List returns every series template.
func (s *SeriesService) List(ctx context.Context) ([]models.EventSeries, error) {
	series, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list series")
	}
	return series, nil
}

// Get loads one series template.
func (s *SeriesService) Get(ctx context.Context, id string) (*models.EventSeries, error) {
	series, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	return series, nil
}

// Update applies the mutable series fields.
func (s *SeriesService) Update(ctx context.Context, id string, req dto.UpdateSeriesRequest) (*models.EventSeries, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}

	series, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		series.Title = *req.Title
	}
	if req.Notes != nil {
		series.Notes = *req.Notes
	}
	if req.Link != nil {
		series.Link = req.Link
	}
	if req.Color != nil {
		series.Color = req.Color
	}
	if req.EndDateUTC != nil {
		if *req.EndDateUTC <= series.StartDateUTC {
			return nil, appErrors.Clone(appErrors.ErrValidation, "series must end after it starts")
		}
		series.EndDateUTC = req.EndDateUTC
	}
	if req.DurationMinutes != nil {
		series.DurationMinutes = *req.DurationMinutes
	}

	if err := s.repo.Update(ctx, series); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update series")
	}
	s.invalidate(ctx)
	return series, nil
}

// TogglePause flips the pause flag. Paused series still project their
// occurrences but stop accepting claims and drop out of the unclaimed feed.
func (s *SeriesService) TogglePause(ctx context.Context, id string) (*models.EventSeries, error) {
	series, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPaused(ctx, id, !series.Paused); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle pause")
	}
	series.Paused = !series.Paused
	s.invalidate(ctx)
	s.logger.Info("series pause toggled", zap.String("series_id", id), zap.Bool("paused", series.Paused))
	return series, nil
}

// Delete removes a series and its overrides.
func (s *SeriesService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete series")
	}
	s.invalidate(ctx)
	s.logger.Info("series deleted", zap.String("series_id", id))
	return nil
}

func (s *SeriesService) invalidate(ctx context.Context) {
	if s.projector != nil {
		s.projector.InvalidatePublicCache(ctx)
	}
}
