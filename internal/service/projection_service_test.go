package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/models"
	"github.com/ohsched/office-hours-api/internal/recurrence"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
)

func ts(year int, month time.Month, day, hour, min int) int64 {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC).UnixNano()
}

type seriesRepoStub struct {
	series []models.EventSeries
}

func (s *seriesRepoStub) ListAll(ctx context.Context) ([]models.EventSeries, error) {
	return s.series, nil
}

func (s *seriesRepoStub) FindByID(ctx context.Context, id string) (*models.EventSeries, error) {
	for i := range s.series {
		if s.series[i].ID == id {
			out := s.series[i]
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *seriesRepoStub) Create(ctx context.Context, series *models.EventSeries) error {
	s.series = append(s.series, *series)
	return nil
}

func (s *seriesRepoStub) Update(ctx context.Context, series *models.EventSeries) error {
	for i := range s.series {
		if s.series[i].ID == series.ID {
			s.series[i] = *series
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *seriesRepoStub) SetPaused(ctx context.Context, id string, paused bool) error {
	for i := range s.series {
		if s.series[i].ID == id {
			s.series[i].Paused = paused
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *seriesRepoStub) Delete(ctx context.Context, id string) error {
	for i := range s.series {
		if s.series[i].ID == id {
			s.series = append(s.series[:i], s.series[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type overrideRepoStub struct {
	overrides map[string]models.InstanceOverride
}

func newOverrideRepoStub() *overrideRepoStub {
	return &overrideRepoStub{overrides: make(map[string]models.InstanceOverride)}
}

func (s *overrideRepoStub) key(seriesID string, occ int64) string {
	return overrideKey(seriesID, occ)
}

func (s *overrideRepoStub) Find(ctx context.Context, seriesID string, occ int64) (*models.InstanceOverride, error) {
	if ovr, ok := s.overrides[s.key(seriesID, occ)]; ok {
		return &ovr, nil
	}
	return nil, sql.ErrNoRows
}

func (s *overrideRepoStub) ListInWindow(ctx context.Context, windowStart, windowEnd int64) ([]models.InstanceOverride, error) {
	var out []models.InstanceOverride
	for _, ovr := range s.overrides {
		if ovr.OccurrenceStartUTC >= windowStart && ovr.OccurrenceStartUTC < windowEnd {
			out = append(out, ovr)
		}
	}
	return out, nil
}

// Upsert seeds an override wholesale; production writes go through the
// column-scoped methods below.
func (s *overrideRepoStub) Upsert(ctx context.Context, override *models.InstanceOverride) error {
	s.overrides[s.key(override.SeriesID, override.OccurrenceStartUTC)] = *override
	return nil
}

func (s *overrideRepoStub) SetHost(ctx context.Context, seriesID string, occ int64, hostID *string, hostCleared bool, actorID string) (bool, error) {
	ovr := s.overrides[s.key(seriesID, occ)]
	if ovr.Cancelled && !hostCleared {
		return false, nil
	}
	ovr.SeriesID = seriesID
	ovr.OccurrenceStartUTC = occ
	ovr.HostID = hostID
	ovr.HostCleared = hostCleared
	ovr.UpdatedBy = actorID
	s.overrides[s.key(seriesID, occ)] = ovr
	return true, nil
}

func (s *overrideRepoStub) Cancel(ctx context.Context, seriesID string, occ int64, reason *string, actorID string) error {
	ovr := s.overrides[s.key(seriesID, occ)]
	ovr.SeriesID = seriesID
	ovr.OccurrenceStartUTC = occ
	ovr.Cancelled = true
	if reason != nil {
		ovr.Notes = reason
	}
	ovr.UpdatedBy = actorID
	s.overrides[s.key(seriesID, occ)] = ovr
	return nil
}

func (s *overrideRepoStub) SetSchedule(ctx context.Context, seriesID string, occ int64, startUTC, endUTC int64, notes *string, actorID string) (bool, error) {
	ovr := s.overrides[s.key(seriesID, occ)]
	if ovr.Cancelled {
		return false, nil
	}
	ovr.SeriesID = seriesID
	ovr.OccurrenceStartUTC = occ
	ovr.StartUTC = &startUTC
	ovr.EndUTC = &endUTC
	if notes != nil {
		ovr.Notes = notes
	}
	ovr.UpdatedBy = actorID
	s.overrides[s.key(seriesID, occ)] = ovr
	return true, nil
}

type oneOffRepoStub struct {
	events map[string]models.OneOffEvent
}

func newOneOffRepoStub() *oneOffRepoStub {
	return &oneOffRepoStub{events: make(map[string]models.OneOffEvent)}
}

func (s *oneOffRepoStub) ListInWindow(ctx context.Context, windowStart, windowEnd int64) ([]models.OneOffEvent, error) {
	var out []models.OneOffEvent
	for _, ev := range s.events {
		if ev.StartUTC >= windowStart && ev.StartUTC < windowEnd {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *oneOffRepoStub) FindByID(ctx context.Context, id string) (*models.OneOffEvent, error) {
	if ev, ok := s.events[id]; ok {
		return &ev, nil
	}
	return nil, sql.ErrNoRows
}

func (s *oneOffRepoStub) Create(ctx context.Context, event *models.OneOffEvent) error {
	if event.ID == "" {
		event.ID = "one-off-" + event.Title
	}
	s.events[event.ID] = *event
	return nil
}

func (s *oneOffRepoStub) SetHost(ctx context.Context, id string, hostID *string) (bool, error) {
	ev, ok := s.events[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if ev.Status == models.EventStatusCancelled && hostID != nil {
		return false, nil
	}
	ev.HostID = hostID
	s.events[id] = ev
	return true, nil
}

func (s *oneOffRepoStub) SetStatus(ctx context.Context, id string, status models.EventStatus) error {
	ev, ok := s.events[id]
	if !ok {
		return sql.ErrNoRows
	}
	ev.Status = status
	s.events[id] = ev
	return nil
}

func (s *oneOffRepoStub) SetTimes(ctx context.Context, id string, startUTC, endUTC int64) (bool, error) {
	ev, ok := s.events[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if ev.Status == models.EventStatusCancelled {
		return false, nil
	}
	ev.StartUTC = startUTC
	ev.EndUTC = endUTC
	s.events[id] = ev
	return true, nil
}

type userRepoStub struct {
	users       map[string]models.User
	oooBlocks   map[string][]models.OOOBlock
	hostedBumps []string
	hostedDrops []string
}

func newUserRepoStub(users ...models.User) *userRepoStub {
	s := &userRepoStub{users: make(map[string]models.User), oooBlocks: make(map[string][]models.OOOBlock)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *userRepoStub) HasOOOOverlap(ctx context.Context, userID string, start, end int64) (bool, error) {
	for _, block := range s.oooBlocks[userID] {
		if block.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *userRepoStub) IncrementHostedCount(ctx context.Context, id string) error {
	s.hostedBumps = append(s.hostedBumps, id)
	if u, ok := s.users[id]; ok {
		u.HostedCount++
		s.users[id] = u
	}
	return nil
}

func (s *userRepoStub) DecrementHostedCount(ctx context.Context, id string) error {
	s.hostedDrops = append(s.hostedDrops, id)
	if u, ok := s.users[id]; ok && u.HostedCount > 0 {
		u.HostedCount--
		s.users[id] = u
	}
	return nil
}

type settingsRepoStub struct {
	settings models.GlobalSettings
}

func (s *settingsRepoStub) Get(ctx context.Context) (*models.GlobalSettings, error) {
	out := s.settings
	return &out, nil
}

func (s *settingsRepoStub) Upsert(ctx context.Context, settings *models.GlobalSettings) error {
	s.settings = *settings
	return nil
}

type cacheStub struct {
	store       map[string][]byte
	invalidated int
}

func newCacheStub() *cacheStub {
	return &cacheStub{store: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = raw
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.invalidated++
	c.store = make(map[string][]byte)
	return nil
}

func weeklyOfficeHours() models.EventSeries {
	color := "#2D6A4F"
	return models.EventSeries{
		ID:              "ser-weekly",
		Title:           "Office Hours",
		Notes:           "Drop in",
		Color:           &color,
		Frequency:       models.FrequencyWeekly,
		Weekday:         models.Wednesday,
		StartDateUTC:    ts(2026, time.February, 4, 14, 0),
		DurationMinutes: 60,
	}
}

func newTestProjection(series *seriesRepoStub, overrides *overrideRepoStub, oneOffs *oneOffRepoStub, users *userRepoStub, settings *settingsRepoStub, cache *cacheStub) *ProjectionService {
	var cacheDep projectionCache
	if cache != nil {
		cacheDep = cache
	}
	svc := NewProjectionService(series, overrides, oneOffs, users, settings, cacheDep, nil, nil, nil, time.Minute)
	return svc.WithClock(func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC) })
}

func TestProjectionListWeeklyRoundTrip(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	svc := newTestProjection(series, newOverrideRepoStub(), newOneOffRepoStub(), newUserRepoStub(), &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)

	instances, err := svc.List(context.Background(), dto.WindowQuery{
		StartUTC: ts(2026, time.February, 1, 0, 0),
		EndUTC:   ts(2026, time.March, 1, 0, 0),
	})
	require.NoError(t, err)
	require.Len(t, instances, 4)

	wantDays := []int{4, 11, 18, 25}
	for i, inst := range instances {
		start := time.Unix(0, inst.StartUTC).UTC()
		assert.Equal(t, wantDays[i], start.Day())
		assert.Equal(t, 14, start.Hour())
		assert.Equal(t, inst.StartUTC+int64(time.Hour), inst.EndUTC)
		assert.Nil(t, inst.Host)
		assert.Equal(t, models.EventStatusActive, inst.Status)
		require.NotNil(t, inst.SeriesID)
		assert.Equal(t, "ser-weekly", *inst.SeriesID)
		require.NotNil(t, inst.Color)
		assert.Equal(t, "#2D6A4F", *inst.Color)
	}
}

func TestProjectionAppliesOverrides(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	overrides := newOverrideRepoStub()
	users := newUserRepoStub(models.User{ID: "u1", FullName: "Casey Host", Email: "casey@example.com"})

	firstOcc := ts(2026, time.February, 4, 14, 0)
	secondOcc := ts(2026, time.February, 11, 14, 0)
	hostID := "u1"
	movedStart := ts(2026, time.February, 4, 16, 0)
	movedEnd := ts(2026, time.February, 4, 17, 0)
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: firstOcc,
		StartUTC:           &movedStart,
		EndUTC:             &movedEnd,
		HostID:             &hostID,
	}))
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: secondOcc,
		Cancelled:          true,
	}))

	svc := newTestProjection(series, overrides, newOneOffRepoStub(), users, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)
	instances, err := svc.List(context.Background(), dto.WindowQuery{
		StartUTC: ts(2026, time.February, 1, 0, 0),
		EndUTC:   ts(2026, time.March, 1, 0, 0),
	})
	require.NoError(t, err)
	require.Len(t, instances, 4)

	// Moved occurrence keeps its identity: id derives from the template
	// start, not the overridden time.
	moved := instances[0]
	assert.Equal(t, recurrence.InstanceID("ser-weekly", firstOcc), moved.ID)
	assert.Equal(t, movedStart, moved.StartUTC)
	require.NotNil(t, moved.Host)
	assert.Equal(t, "Casey Host", moved.Host.FullName)
	assert.Equal(t, "casey@example.com", moved.Host.Email)

	// Cancelled occurrence stays in the projection as a tombstone.
	cancelled := instances[1]
	assert.Equal(t, models.EventStatusCancelled, cancelled.Status)
	assert.Equal(t, secondOcc, cancelled.StartUTC)
}

func TestProjectionHostClearedHidesHost(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	overrides := newOverrideRepoStub()
	hostID := "u1"
	occ := ts(2026, time.February, 4, 14, 0)
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: occ,
		HostID:             &hostID,
		HostCleared:        true,
	}))

	svc := newTestProjection(series, overrides, newOneOffRepoStub(), newUserRepoStub(), &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)
	inst, err := svc.ResolveSeriesOccurrence(context.Background(), "ser-weekly", occ)
	require.NoError(t, err)
	assert.Nil(t, inst.Host)
}

func TestProjectionMergesOneOffEventsSorted(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	oneOffs := newOneOffRepoStub()
	require.NoError(t, oneOffs.Create(context.Background(), &models.OneOffEvent{
		ID:       "one-1",
		Title:    "Launch Q&A",
		StartUTC: ts(2026, time.February, 6, 10, 0),
		EndUTC:   ts(2026, time.February, 6, 11, 0),
		Status:   models.EventStatusActive,
	}))

	svc := newTestProjection(series, newOverrideRepoStub(), oneOffs, newUserRepoStub(), &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)
	instances, err := svc.List(context.Background(), dto.WindowQuery{
		StartUTC: ts(2026, time.February, 1, 0, 0),
		EndUTC:   ts(2026, time.March, 1, 0, 0),
	})
	require.NoError(t, err)
	require.Len(t, instances, 5)
	assert.Equal(t, "Office Hours", instances[0].Title)
	assert.Equal(t, "Launch Q&A", instances[1].Title)
	assert.Nil(t, instances[1].SeriesID)
}

func TestProjectionUnclaimedExcludesHostedCancelledAndPaused(t *testing.T) {
	paused := weeklyOfficeHours()
	paused.ID = "ser-paused"
	paused.Paused = true
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours(), paused}}

	overrides := newOverrideRepoStub()
	hostID := "u1"
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: ts(2026, time.February, 4, 14, 0),
		HostID:             &hostID,
	}))
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: ts(2026, time.February, 11, 14, 0),
		Cancelled:          true,
	}))

	users := newUserRepoStub(models.User{ID: "u1", FullName: "Casey Host"})
	svc := newTestProjection(series, overrides, newOneOffRepoStub(), users, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)

	unclaimed, err := svc.Unclaimed(context.Background())
	require.NoError(t, err)
	// Forward window: Feb 1 through end of April. The hosted 02-04 and the
	// cancelled 02-11 drop out, as does every paused-series occurrence.
	for _, inst := range unclaimed {
		assert.Nil(t, inst.Host)
		assert.Equal(t, models.EventStatusActive, inst.Status)
		assert.False(t, inst.SeriesPaused)
		require.NotNil(t, inst.SeriesID)
		assert.Equal(t, "ser-weekly", *inst.SeriesID)
	}
	assert.Len(t, unclaimed, 11)
}

func TestProjectionListPublicRedactsAndCaches(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	overrides := newOverrideRepoStub()
	hostID := "u1"
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: ts(2026, time.February, 4, 14, 0),
		HostID:             &hostID,
	}))
	users := newUserRepoStub(models.User{ID: "u1", FullName: "Casey Host", Email: "casey@example.com"})
	cache := newCacheStub()
	svc := newTestProjection(series, overrides, newOneOffRepoStub(), users, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, cache)

	q := dto.WindowQuery{StartUTC: ts(2026, time.February, 1, 0, 0), EndUTC: ts(2026, time.March, 1, 0, 0)}
	views, err := svc.ListPublic(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, views, 4)
	require.NotNil(t, views[0].HostName)
	assert.Equal(t, "Casey Host", *views[0].HostName)
	require.NotNil(t, views[0].Color)
	assert.Equal(t, "#2D6A4F", *views[0].Color)
	assert.Len(t, cache.store, 1)

	// Second read is served from cache even after the backing data changes.
	series.series[0].Title = "Renamed"
	cached, err := svc.ListPublic(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "Office Hours", cached[0].Title)
}

func TestProjectionResolveRejectsPhantomOccurrence(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	svc := newTestProjection(series, newOverrideRepoStub(), newOneOffRepoStub(), newUserRepoStub(), &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)

	// Thursday 14:00 is not generated by a Wednesday series.
	_, err := svc.ResolveSeriesOccurrence(context.Background(), "ser-weekly", ts(2026, time.February, 5, 14, 0))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProjectionCoverageHistory(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	overrides := newOverrideRepoStub()
	hostID := "u1"
	require.NoError(t, overrides.Upsert(context.Background(), &models.InstanceOverride{
		SeriesID:           "ser-weekly",
		OccurrenceStartUTC: ts(2026, time.February, 4, 14, 0),
		HostID:             &hostID,
	}))
	users := newUserRepoStub(models.User{ID: "u1", FullName: "Casey Host"})
	svc := newTestProjection(series, overrides, newOneOffRepoStub(), users, &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)
	svc.WithClock(func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) })

	periods, err := svc.CoverageHistory(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2026-02", periods[0].Month)
	assert.Equal(t, 4, periods[0].Total)
	assert.Equal(t, 1, periods[0].Assigned)
	assert.Equal(t, "2026-03", periods[1].Month)
	assert.Equal(t, 2, periods[1].Total)
}

func TestProjectionExportCSV(t *testing.T) {
	series := &seriesRepoStub{series: []models.EventSeries{weeklyOfficeHours()}}
	svc := newTestProjection(series, newOverrideRepoStub(), newOneOffRepoStub(), newUserRepoStub(), &settingsRepoStub{settings: models.DefaultGlobalSettings()}, nil)

	payload, err := svc.ExportCSV(context.Background(), dto.WindowQuery{
		StartUTC: ts(2026, time.February, 1, 0, 0),
		EndUTC:   ts(2026, time.March, 1, 0, 0),
	})
	require.NoError(t, err)
	text := string(payload)
	assert.True(t, strings.HasPrefix(text, "instance_id,series_id,title"))
	assert.Contains(t, text, "Office Hours")
	assert.Contains(t, text, "2026-02-04T14:00:00Z")
}
