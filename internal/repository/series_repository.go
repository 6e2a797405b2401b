package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ohsched/office-hours-api/internal/models"
)

const seriesColumns = "id, title, notes, link, color, frequency, weekday, weekday_ordinal, start_date_utc, end_date_utc, duration_minutes, paused, created_by, created_at, updated_at"

// SeriesRepository provides persistence for recurring event templates.
type SeriesRepository struct {
	db *sqlx.DB
}

// NewSeriesRepository creates a new series repository.
func NewSeriesRepository(db *sqlx.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// FindByID loads a series by id.
func (r *SeriesRepository) FindByID(ctx context.Context, id string) (*models.EventSeries, error) {
	query := fmt.Sprintf("SELECT %s FROM event_series WHERE id = $1", seriesColumns)
	var series models.EventSeries
	if err := r.db.GetContext(ctx, &series, query, id); err != nil {
		return nil, err
	}
	return &series, nil
}

// ListAll returns every series ordered by creation time. Series templates
// are few by nature, so projection loads them without pagination.
func (r *SeriesRepository) ListAll(ctx context.Context) ([]models.EventSeries, error) {
	query := fmt.Sprintf("SELECT %s FROM event_series ORDER BY created_at ASC", seriesColumns)
	var series []models.EventSeries
	if err := r.db.SelectContext(ctx, &series, query); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return series, nil
}

// Create stores a new series template.
func (r *SeriesRepository) Create(ctx context.Context, series *models.EventSeries) error {
	if series.ID == "" {
		series.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = now

	const query = `INSERT INTO event_series (id, title, notes, link, color, frequency, weekday, weekday_ordinal, start_date_utc, end_date_utc, duration_minutes, paused, created_by, created_at, updated_at) VALUES (:id, :title, :notes, :link, :color, :frequency, :weekday, :weekday_ordinal, :start_date_utc, :end_date_utc, :duration_minutes, :paused, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a series. Schedule fields
// (frequency, weekday, ordinal, start date) are immutable after creation.
func (r *SeriesRepository) Update(ctx context.Context, series *models.EventSeries) error {
	series.UpdatedAt = time.Now().UTC()
	const query = `UPDATE event_series SET title = :title, notes = :notes, link = :link, color = :color, end_date_utc = :end_date_utc, duration_minutes = :duration_minutes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("update series %s: %w", series.ID, err)
	}
	return nil
}

// SetPaused toggles the pause flag on a series.
func (r *SeriesRepository) SetPaused(ctx context.Context, id string, paused bool) error {
	const query = `UPDATE event_series SET paused = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, paused, time.Now().UTC()); err != nil {
		return fmt.Errorf("set series %s paused: %w", id, err)
	}
	return nil
}

// Delete removes a series and its overrides.
func (r *SeriesRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete series: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM instance_overrides WHERE series_id = $1`, id); err != nil {
		return fmt.Errorf("delete overrides for series %s: %w", id, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM event_series WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete series %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete series: %w", err)
	}
	return nil
}
