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

type instanceResolver interface {
	Resolve(ctx context.Context, ref dto.InstanceRef) (*models.EventInstance, error)
	InvalidatePublicCache(ctx context.Context)
}

type coverageOverrideStore interface {
	SetHost(ctx context.Context, seriesID string, occurrenceStart int64, hostID *string, hostCleared bool, actorID string) (bool, error)
	Cancel(ctx context.Context, seriesID string, occurrenceStart int64, reason *string, actorID string) error
	SetSchedule(ctx context.Context, seriesID string, occurrenceStart int64, startUTC, endUTC int64, notes *string, actorID string) (bool, error)
}

type coverageOneOffStore interface {
	SetHost(ctx context.Context, id string, hostID *string) (bool, error)
	SetStatus(ctx context.Context, id string, status models.EventStatus) error
	SetTimes(ctx context.Context, id string, startUTC, endUTC int64) (bool, error)
}

type coverageUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	HasOOOOverlap(ctx context.Context, userID string, start, end int64) (bool, error)
	IncrementHostedCount(ctx context.Context, id string) error
	DecrementHostedCount(ctx context.Context, id string) error
}

type coverageSettingsReader interface {
	Get(ctx context.Context) (*models.GlobalSettings, error)
}

type coverageNotifier interface {
	Enqueue(ctx context.Context, kind models.NotificationKind, recipient *models.User, instance *models.EventInstance) error
}

// CoverageService owns host assignment on individual instances. Series
// occurrences are written through the override table so claiming one
// instance never touches the recurring template; one-off events are mutated
// in place. Both paths converge on the same projected host value.
type CoverageService struct {
	projector instanceResolver
	overrides coverageOverrideStore
	oneOffs   coverageOneOffStore
	users     coverageUserStore
	settings  coverageSettingsReader
	outbox    coverageNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCoverageService constructs a CoverageService.
func NewCoverageService(
	projector instanceResolver,
	overrides coverageOverrideStore,
	oneOffs coverageOneOffStore,
	users coverageUserStore,
	settings coverageSettingsReader,
	outbox coverageNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *CoverageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CoverageService{
		projector: projector,
		overrides: overrides,
		oneOffs:   oneOffs,
		users:     users,
		settings:  settings,
		outbox:    outbox,
		validator: validate,
		logger:    logger,
	}
}

// AssignHost puts a candidate on an instance. Non-admin callers may only
// claim for themselves; admins may assign anyone and may override OOO and
// the global claim pause. Reassigning over an existing host is allowed.
func (s *CoverageService) AssignHost(ctx context.Context, req dto.AssignHostRequest, actorID string, actorRole models.UserRole) (*models.EventInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	isAdmin := actorRole == models.RoleAdmin
	if !isAdmin && req.CandidateID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may assign other users")
	}

	instance, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if instance.Status == models.EventStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "occurrence is cancelled")
	}
	if instance.SeriesPaused {
		return nil, appErrors.Clone(appErrors.ErrConflict, "series is paused")
	}

	candidate, err := s.users.FindByID(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown candidate")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	if candidate.Status != models.UserStatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "candidate account is disabled")
	}

	overlaps, err := s.users.HasOOOOverlap(ctx, candidate.ID, instance.StartUTC, instance.EndUTC)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check availability")
	}
	if overlaps {
		if !isAdmin {
			return nil, appErrors.Clone(appErrors.ErrConflict, "candidate is out of office for this instance")
		}
		s.logger.Info("admin assignment overrides out-of-office",
			zap.String("candidate_id", candidate.ID),
			zap.String("instance_id", instance.ID))
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	if settings.ClaimsPaused && !isAdmin {
		return nil, appErrors.Clone(appErrors.ErrConflict, "claiming is currently paused")
	}

	// The write itself re-checks the cancellation flag so an assignment
	// racing a concurrent cancellation loses instead of resurrecting the
	// occurrence.
	hostID := candidate.ID
	var applied bool
	if req.IsSeries() {
		applied, err = s.overrides.SetHost(ctx, req.SeriesID, req.OccurrenceStartUTC, &hostID, false, actorID)
	} else {
		applied, err = s.oneOffs.SetHost(ctx, instance.ID, &hostID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write assignment")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrConflict, "occurrence is cancelled")
	}

	if err := s.users.IncrementHostedCount(ctx, candidate.ID); err != nil {
		s.logger.Warn("failed to bump hosted count", zap.String("user_id", candidate.ID), zap.Error(err))
	}

	updated, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if err := s.outbox.Enqueue(ctx, models.NotificationHostAssigned, candidate, updated); err != nil {
		s.logger.Warn("failed to enqueue assignment notification", zap.Error(err))
	}
	s.projector.InvalidatePublicCache(ctx)

	s.logger.Info("host assigned",
		zap.String("instance_id", updated.ID),
		zap.String("host_id", candidate.ID),
		zap.String("actor_id", actorID))
	return updated, nil
}

// UnassignHost removes the current host. Unhosted instances are a no-op.
// Non-admin callers may only release their own claim. Only the host that was
// actually removed is notified.
func (s *CoverageService) UnassignHost(ctx context.Context, req dto.UnassignHostRequest, actorID string, actorRole models.UserRole) (*models.EventInstance, error) {
	instance, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if instance.Host == nil {
		return instance, nil
	}
	isAdmin := actorRole == models.RoleAdmin
	if !isAdmin && instance.Host.ID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the current host or an admin may unassign")
	}

	removedHostID := instance.Host.ID
	if req.IsSeries() {
		if _, err := s.overrides.SetHost(ctx, req.SeriesID, req.OccurrenceStartUTC, nil, true, actorID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear assignment")
		}
	} else {
		if _, err := s.oneOffs.SetHost(ctx, instance.ID, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear assignment")
		}
	}

	if err := s.users.DecrementHostedCount(ctx, removedHostID); err != nil {
		s.logger.Warn("failed to drop hosted count", zap.String("user_id", removedHostID), zap.Error(err))
	}

	updated, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if removed, err := s.users.FindByID(ctx, removedHostID); err == nil {
		if err := s.outbox.Enqueue(ctx, models.NotificationHostRemoved, removed, updated); err != nil {
			s.logger.Warn("failed to enqueue removal notification", zap.Error(err))
		}
	}
	s.projector.InvalidatePublicCache(ctx)

	s.logger.Info("host unassigned",
		zap.String("instance_id", updated.ID),
		zap.String("removed_host_id", removedHostID),
		zap.String("actor_id", actorID))
	return updated, nil
}

// CancelOccurrence tombstones one instance without touching its series.
// Cancelling an already-cancelled instance is idempotent.
func (s *CoverageService) CancelOccurrence(ctx context.Context, req dto.CancelOccurrenceRequest, actorID string) (*models.EventInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}

	instance, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if instance.Status == models.EventStatusCancelled {
		return instance, nil
	}

	if req.IsSeries() {
		var reason *string
		if req.Reason != "" {
			r := req.Reason
			reason = &r
		}
		if err := s.overrides.Cancel(ctx, req.SeriesID, req.OccurrenceStartUTC, reason, actorID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel occurrence")
		}
	} else {
		if err := s.oneOffs.SetStatus(ctx, instance.ID, models.EventStatusCancelled); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel event")
		}
	}

	updated, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if instance.Host != nil {
		if host, err := s.users.FindByID(ctx, instance.Host.ID); err == nil {
			if err := s.outbox.Enqueue(ctx, models.NotificationEventCancelled, host, updated); err != nil {
				s.logger.Warn("failed to enqueue cancellation notification", zap.Error(err))
			}
		}
	}
	s.projector.InvalidatePublicCache(ctx)
	return updated, nil
}

// RescheduleOccurrence moves one instance in time without touching its
// series template.
func (s *CoverageService) RescheduleOccurrence(ctx context.Context, req dto.RescheduleOccurrenceRequest, actorID string) (*models.EventInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}

	instance, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if instance.Status == models.EventStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "occurrence is cancelled")
	}

	// Same race guard as assignment: a cancellation that lands between the
	// read above and this write makes the statement a no-op.
	var applied bool
	if req.IsSeries() {
		applied, err = s.overrides.SetSchedule(ctx, req.SeriesID, req.OccurrenceStartUTC, req.StartUTC, req.EndUTC, req.Notes, actorID)
	} else {
		applied, err = s.oneOffs.SetTimes(ctx, instance.ID, req.StartUTC, req.EndUTC)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule occurrence")
	}
	if !applied {
		return nil, appErrors.Clone(appErrors.ErrConflict, "occurrence is cancelled")
	}

	updated, err := s.projector.Resolve(ctx, req.InstanceRef)
	if err != nil {
		return nil, err
	}
	if updated.Host != nil {
		if host, err := s.users.FindByID(ctx, updated.Host.ID); err == nil {
			if err := s.outbox.Enqueue(ctx, models.NotificationTimeChanged, host, updated); err != nil {
				s.logger.Warn("failed to enqueue time change notification", zap.Error(err))
			}
		}
	}
	s.projector.InvalidatePublicCache(ctx)
	return updated, nil
}
