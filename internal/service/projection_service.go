package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/ics"
	"github.com/ohsched/office-hours-api/internal/models"
	"github.com/ohsched/office-hours-api/internal/recurrence"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
	"github.com/ohsched/office-hours-api/pkg/export"
)

type projectionSeriesReader interface {
	ListAll(ctx context.Context) ([]models.EventSeries, error)
	FindByID(ctx context.Context, id string) (*models.EventSeries, error)
}

type projectionOverrideReader interface {
	ListInWindow(ctx context.Context, windowStart, windowEnd int64) ([]models.InstanceOverride, error)
	Find(ctx context.Context, seriesID string, occurrenceStart int64) (*models.InstanceOverride, error)
}

type projectionOneOffStore interface {
	ListInWindow(ctx context.Context, windowStart, windowEnd int64) ([]models.OneOffEvent, error)
	FindByID(ctx context.Context, id string) (*models.OneOffEvent, error)
	Create(ctx context.Context, event *models.OneOffEvent) error
}

type projectionUserReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type projectionSettingsReader interface {
	Get(ctx context.Context) (*models.GlobalSettings, error)
}

type projectionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const publicCachePrefix = "events:public:"

// ProjectionService materializes calendar instances from series templates,
// per-occurrence overrides and one-off events. Series occurrences are never
// stored; every read re-derives them, so two calls over the same window
// always agree.
type ProjectionService struct {
	series    projectionSeriesReader
	overrides projectionOverrideReader
	oneOffs   projectionOneOffStore
	users     projectionUserReader
	settings  projectionSettingsReader
	cache     projectionCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	publicTTL time.Duration
	renderer  *ics.Renderer
	now       func() time.Time
}

// NewProjectionService constructs a ProjectionService.
func NewProjectionService(
	series projectionSeriesReader,
	overrides projectionOverrideReader,
	oneOffs projectionOneOffStore,
	users projectionUserReader,
	settings projectionSettingsReader,
	cache projectionCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	publicTTL time.Duration,
) *ProjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if publicTTL <= 0 {
		publicTTL = time.Minute
	}
	return &ProjectionService{
		series:    series,
		overrides: overrides,
		oneOffs:   oneOffs,
		users:     users,
		settings:  settings,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		publicTTL: publicTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *ProjectionService) WithClock(now func() time.Time) *ProjectionService {
	s.now = now
	return s
}

// WithRenderer sets the iCalendar renderer used for invite downloads.
func (s *ProjectionService) WithRenderer(renderer *ics.Renderer) *ProjectionService {
	s.renderer = renderer
	return s
}

// List materializes the full projection for an authenticated caller.
func (s *ProjectionService) List(ctx context.Context, q dto.WindowQuery) ([]models.EventInstance, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window")
	}
	return s.project(ctx, q.StartUTC, q.EndUTC)
}

// ListPublic serves the redacted projection: no notes, no links, host
// reduced to a display name. Results are cached per window.
func (s *ProjectionService) ListPublic(ctx context.Context, q dto.WindowQuery) ([]models.PublicEventView, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window")
	}

	key := fmt.Sprintf("%s%d:%d", publicCachePrefix, q.StartUTC, q.EndUTC)
	if s.cache != nil {
		started := time.Now()
		var cached []models.PublicEventView
		err := s.cache.Get(ctx, key, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(started))
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("public projection cache read failed", zap.Error(err))
		}
	}

	instances, err := s.project(ctx, q.StartUTC, q.EndUTC)
	if err != nil {
		return nil, err
	}

	views := make([]models.PublicEventView, 0, len(instances))
	for _, inst := range instances {
		view := models.PublicEventView{
			ID:       inst.ID,
			Title:    inst.Title,
			Color:    inst.Color,
			StartUTC: inst.StartUTC,
			EndUTC:   inst.EndUTC,
			Status:   inst.Status,
		}
		if inst.Host != nil {
			name := inst.Host.FullName
			view.HostName = &name
		}
		views = append(views, view)
	}

	if s.cache != nil {
		started := time.Now()
		if err := s.cache.Set(ctx, key, views, s.publicTTL); err != nil {
			s.logger.Warn("public projection cache write failed", zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(started))
	}
	return views, nil
}

// Unclaimed returns host-less active instances inside the forward window,
// excluding occurrences of paused series.
func (s *ProjectionService) Unclaimed(ctx context.Context) ([]models.EventInstance, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	nowNanos := s.now().UnixNano()
	windowEnd := recurrence.WindowEnd(nowNanos, settings.ForwardWindowMonths)
	instances, err := s.project(ctx, nowNanos, windowEnd+1)
	if err != nil {
		return nil, err
	}

	unclaimed := make([]models.EventInstance, 0)
	for _, inst := range instances {
		if inst.Host == nil && inst.Status == models.EventStatusActive && !inst.SeriesPaused {
			unclaimed = append(unclaimed, inst)
		}
	}
	return unclaimed, nil
}

// Resolve loads a single instance from an instance reference.
func (s *ProjectionService) Resolve(ctx context.Context, ref dto.InstanceRef) (*models.EventInstance, error) {
	if ref.IsSeries() {
		return s.ResolveSeriesOccurrence(ctx, ref.SeriesID, ref.OccurrenceStartUTC)
	}
	if ref.InstanceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instance reference is empty")
	}
	return s.resolveOneOff(ctx, ref.InstanceID)
}

// ResolveSeriesOccurrence projects one occurrence of a series with its
// override applied. An occurrence start that the series never generates is
// NotFound, which keeps callers from writing overrides for phantom keys.
func (s *ProjectionService) ResolveSeriesOccurrence(ctx context.Context, seriesID string, occurrenceStart int64) (*models.EventInstance, error) {
	series, err := s.series.FindByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	if occs := recurrence.Expand(series, occurrenceStart, occurrenceStart+1); len(occs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence does not belong to series")
	}

	var override *models.InstanceOverride
	override, err = s.overrides.Find(ctx, seriesID, occurrenceStart)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
		}
		override = nil
	}

	inst := buildSeriesInstance(series, occurrenceStart, override)
	if err := s.attachHosts(ctx, []*models.EventInstance{&inst}); err != nil {
		return nil, err
	}
	return &inst, nil
}

// FindByInstanceID locates an instance by its id alone. One-off ids resolve
// directly; series instance ids are searched within the projection from the
// start of the current month to the end of the forward window.
func (s *ProjectionService) FindByInstanceID(ctx context.Context, instanceID string) (*models.EventInstance, error) {
	inst, err := s.resolveOneOff(ctx, instanceID)
	if err == nil {
		return inst, nil
	}
	if appErr := appErrors.FromError(err); appErr.Code != appErrors.ErrNotFound.Code {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).UnixNano()
	windowEnd := recurrence.WindowEnd(now.UnixNano(), settings.ForwardWindowMonths)
	instances, err := s.project(ctx, monthStart, windowEnd+1)
	if err != nil {
		return nil, err
	}
	for i := range instances {
		if instances[i].ID == instanceID {
			return &instances[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
}

// RenderICS renders a single instance as an iCalendar payload for download.
func (s *ProjectionService) RenderICS(ctx context.Context, instanceID string) (string, error) {
	inst, err := s.FindByInstanceID(ctx, instanceID)
	if err != nil {
		return "", err
	}

	organizer := "Office Hours"
	if s.settings != nil {
		if settings, err := s.settings.Get(ctx); err == nil && settings.BrandTitle != "" {
			organizer = settings.BrandTitle
		}
	}

	invite := ics.Invite{
		InstanceID:    inst.ID,
		Summary:       inst.Title,
		Description:   inst.Notes,
		Start:         time.Unix(0, inst.StartUTC).UTC(),
		End:           time.Unix(0, inst.EndUTC).UTC(),
		Cancelled:     inst.Status == models.EventStatusCancelled,
		OrganizerName: organizer,
	}
	if inst.Link != nil {
		invite.Link = *inst.Link
	}
	if inst.Host != nil {
		invite.AttendeeEmail = inst.Host.Email
		invite.AttendeeName = inst.Host.FullName
	}

	renderer := s.renderer
	if renderer == nil {
		renderer = ics.NewRenderer("", "")
	}
	return renderer.Render(invite), nil
}

// CreateOneOff stores a standalone event and returns its projection.
func (s *ProjectionService) CreateOneOff(ctx context.Context, req dto.CreateOneOffEventRequest, actorID string) (*models.EventInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.EndUTC <= req.StartUTC {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event must end after it starts")
	}

	event := &models.OneOffEvent{
		Title:     req.Title,
		Notes:     req.Notes,
		Link:      req.Link,
		Color:     req.Color,
		StartUTC:  req.StartUTC,
		EndUTC:    req.EndUTC,
		Status:    models.EventStatusActive,
		CreatedBy: actorID,
	}
	if err := s.oneOffs.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.InvalidatePublicCache(ctx)
	inst := buildOneOffInstance(event)
	return &inst, nil
}

// CoverageHistory aggregates hosted-vs-total counts per calendar month over
// the trailing period, current month included.
func (s *ProjectionService) CoverageHistory(ctx context.Context, months int) ([]dto.CoveragePeriod, error) {
	if months < 1 || months > 24 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "months must be between 1 and 24")
	}

	now := s.now()
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	instances, err := s.project(ctx, windowStart.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, err
	}

	periods := make([]dto.CoveragePeriod, 0, months)
	index := make(map[string]int, months)
	for cursor := windowStart; !cursor.After(now); cursor = cursor.AddDate(0, 1, 0) {
		label := cursor.Format("2006-01")
		index[label] = len(periods)
		periods = append(periods, dto.CoveragePeriod{Month: label})
	}

	for _, inst := range instances {
		if inst.Status != models.EventStatusActive {
			continue
		}
		label := time.Unix(0, inst.StartUTC).UTC().Format("2006-01")
		i, ok := index[label]
		if !ok {
			continue
		}
		periods[i].Total++
		if inst.Host != nil {
			periods[i].Assigned++
		}
	}
	return periods, nil
}

// ExportCSV renders the projection for a window as CSV.
func (s *ProjectionService) ExportCSV(ctx context.Context, q dto.WindowQuery) ([]byte, error) {
	data, err := s.exportDataset(ctx, q)
	if err != nil {
		return nil, err
	}
	payload, err := export.NewCSVExporter().Render(*data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// ExportPDF renders the projection for a window as a PDF table.
func (s *ProjectionService) ExportPDF(ctx context.Context, q dto.WindowQuery) ([]byte, error) {
	data, err := s.exportDataset(ctx, q)
	if err != nil {
		return nil, err
	}
	payload, err := export.NewPDFExporter().Render(*data, "Schedule")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

// InvalidatePublicCache drops every cached public projection. Writers call
// this after any change that can alter a projected window.
func (s *ProjectionService) InvalidatePublicCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, publicCachePrefix+"*"); err != nil {
		s.logger.Warn("public projection cache invalidation failed", zap.Error(err))
	}
}

func (s *ProjectionService) exportDataset(ctx context.Context, q dto.WindowQuery) (*export.Dataset, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window")
	}
	instances, err := s.project(ctx, q.StartUTC, q.EndUTC)
	if err != nil {
		return nil, err
	}

	data := &export.Dataset{
		Headers: []string{"instance_id", "series_id", "title", "start_utc", "end_utc", "host_name", "host_email", "status"},
		Rows:    make([]map[string]string, 0, len(instances)),
	}
	for _, inst := range instances {
		row := map[string]string{
			"instance_id": inst.ID,
			"series_id":   "",
			"title":       inst.Title,
			"start_utc":   time.Unix(0, inst.StartUTC).UTC().Format(time.RFC3339),
			"end_utc":     time.Unix(0, inst.EndUTC).UTC().Format(time.RFC3339),
			"host_name":   "",
			"host_email":  "",
			"status":      string(inst.Status),
		}
		if inst.SeriesID != nil {
			row["series_id"] = *inst.SeriesID
		}
		if inst.Host != nil {
			row["host_name"] = inst.Host.FullName
			row["host_email"] = inst.Host.Email
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

// project is the materialization core: expand every series over the window,
// overlay overrides, merge one-off events and sort.
func (s *ProjectionService) project(ctx context.Context, windowStart, windowEnd int64) ([]models.EventInstance, error) {
	seriesList, err := s.series.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	overrideList, err := s.overrides.ListInWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}
	overrideIndex := make(map[string]*models.InstanceOverride, len(overrideList))
	for i := range overrideList {
		ovr := &overrideList[i]
		overrideIndex[overrideKey(ovr.SeriesID, ovr.OccurrenceStartUTC)] = ovr
	}

	instances := make([]models.EventInstance, 0)
	for i := range seriesList {
		series := &seriesList[i]
		for _, occ := range recurrence.Expand(series, windowStart, windowEnd) {
			inst := buildSeriesInstance(series, occ, overrideIndex[overrideKey(series.ID, occ)])
			instances = append(instances, inst)
		}
	}

	oneOffs, err := s.oneOffs.ListInWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load one-off events")
	}
	for i := range oneOffs {
		instances = append(instances, buildOneOffInstance(&oneOffs[i]))
	}

	refs := make([]*models.EventInstance, len(instances))
	for i := range instances {
		refs[i] = &instances[i]
	}
	if err := s.attachHosts(ctx, refs); err != nil {
		return nil, err
	}

	sort.Slice(instances, func(i, j int) bool {
		if instances[i].StartUTC != instances[j].StartUTC {
			return instances[i].StartUTC < instances[j].StartUTC
		}
		return instances[i].ID < instances[j].ID
	})
	return instances, nil
}

// attachHosts resolves host ids to embedded host summaries in one query.
func (s *ProjectionService) attachHosts(ctx context.Context, instances []*models.EventInstance) error {
	idSet := make(map[string]struct{})
	for _, inst := range instances {
		if inst.Host != nil && inst.Host.ID != "" {
			idSet[inst.Host.ID] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hosts")
	}

	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	for _, inst := range instances {
		if inst.Host == nil {
			continue
		}
		user, ok := byID[inst.Host.ID]
		if !ok {
			// Host row vanished; surface the instance as unhosted.
			inst.Host = nil
			continue
		}
		inst.Host.FullName = user.FullName
		inst.Host.Email = user.Email
	}
	return nil
}

func (s *ProjectionService) resolveOneOff(ctx context.Context, id string) (*models.EventInstance, error) {
	event, err := s.oneOffs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	inst := buildOneOffInstance(event)
	if err := s.attachHosts(ctx, []*models.EventInstance{&inst}); err != nil {
		return nil, err
	}
	return &inst, nil
}

// buildSeriesInstance overlays an override onto an expanded occurrence.
// Cancelled occurrences stay in the projection with a CANCELLED status so
// clients can show the tombstone instead of a silent gap.
func buildSeriesInstance(series *models.EventSeries, occurrenceStart int64, override *models.InstanceOverride) models.EventInstance {
	seriesID := series.ID
	occ := occurrenceStart
	inst := models.EventInstance{
		ID:                 recurrence.InstanceID(series.ID, occurrenceStart),
		SeriesID:           &seriesID,
		OccurrenceStartUTC: &occ,
		Title:              series.Title,
		Notes:              series.Notes,
		Link:               series.Link,
		Color:              series.Color,
		StartUTC:           occurrenceStart,
		EndUTC:             occurrenceStart + series.DurationNanos(),
		Status:             models.EventStatusActive,
		SeriesPaused:       series.Paused,
	}
	if override == nil {
		return inst
	}

	if override.StartUTC != nil {
		inst.StartUTC = *override.StartUTC
	}
	if override.EndUTC != nil {
		inst.EndUTC = *override.EndUTC
	}
	if override.Notes != nil {
		inst.Notes = *override.Notes
	}
	if override.Cancelled {
		inst.Status = models.EventStatusCancelled
	}
	if !override.HostCleared && override.HostID != nil {
		inst.Host = &models.HostInfo{ID: *override.HostID}
	}
	return inst
}

func buildOneOffInstance(event *models.OneOffEvent) models.EventInstance {
	inst := models.EventInstance{
		ID:       event.ID,
		Title:    event.Title,
		Notes:    event.Notes,
		Link:     event.Link,
		Color:    event.Color,
		StartUTC: event.StartUTC,
		EndUTC:   event.EndUTC,
		Status:   event.Status,
	}
	if event.HostID != nil {
		inst.Host = &models.HostInfo{ID: *event.HostID}
	}
	return inst
}

func overrideKey(seriesID string, occurrenceStart int64) string {
	return fmt.Sprintf("%s@%d", seriesID, occurrenceStart)
}
