package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ohsched/office-hours-api/internal/models"
)

const overrideColumns = "series_id, occurrence_start_utc, start_utc, end_utc, notes, host_id, host_cleared, cancelled, updated_by, updated_at"

// OverrideRepository provides persistence for per-occurrence deviations.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository creates a new override repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// Find loads the override for one occurrence, if any.
func (r *OverrideRepository) Find(ctx context.Context, seriesID string, occurrenceStart int64) (*models.InstanceOverride, error) {
	query := fmt.Sprintf("SELECT %s FROM instance_overrides WHERE series_id = $1 AND occurrence_start_utc = $2", overrideColumns)
	var override models.InstanceOverride
	if err := r.db.GetContext(ctx, &override, query, seriesID, occurrenceStart); err != nil {
		return nil, err
	}
	return &override, nil
}

// ListInWindow returns every override whose occurrence key falls inside
// [windowStart, windowEnd), across all series.
func (r *OverrideRepository) ListInWindow(ctx context.Context, windowStart, windowEnd int64) ([]models.InstanceOverride, error) {
	query := fmt.Sprintf("SELECT %s FROM instance_overrides WHERE occurrence_start_utc >= $1 AND occurrence_start_utc < $2", overrideColumns)
	var overrides []models.InstanceOverride
	if err := r.db.SelectContext(ctx, &overrides, query, windowStart, windowEnd); err != nil {
		return nil, fmt.Errorf("list overrides in window: %w", err)
	}
	return overrides, nil
}

// SetHost assigns or clears the host for one occurrence. Each write is a
// single statement that touches only the host columns, so deltas committed
// by concurrent writers survive. Assigning onto a cancelled occurrence is
// refused inside the statement (clearing is always allowed); the returned
// bool reports whether the write was applied.
func (r *OverrideRepository) SetHost(ctx context.Context, seriesID string, occurrenceStart int64, hostID *string, hostCleared bool, actorID string) (bool, error) {
	const query = `INSERT INTO instance_overrides (series_id, occurrence_start_utc, host_id, host_cleared, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (series_id, occurrence_start_utc) DO UPDATE SET host_id = EXCLUDED.host_id, host_cleared = EXCLUDED.host_cleared, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
WHERE instance_overrides.cancelled = FALSE OR EXCLUDED.host_cleared`
	res, err := r.db.ExecContext(ctx, query, seriesID, occurrenceStart, hostID, hostCleared, actorID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set host on override %s@%d: %w", seriesID, occurrenceStart, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set host on override %s@%d: %w", seriesID, occurrenceStart, err)
	}
	return affected > 0, nil
}

// Cancel writes the cancellation tombstone for one occurrence, optionally
// recording a reason in the notes column. Host and schedule columns are left
// untouched. Cancelling twice is harmless.
func (r *OverrideRepository) Cancel(ctx context.Context, seriesID string, occurrenceStart int64, reason *string, actorID string) error {
	const query = `INSERT INTO instance_overrides (series_id, occurrence_start_utc, notes, cancelled, updated_by, updated_at)
VALUES ($1, $2, $3, TRUE, $4, $5)
ON CONFLICT (series_id, occurrence_start_utc) DO UPDATE SET cancelled = TRUE, notes = COALESCE(EXCLUDED.notes, instance_overrides.notes), updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, seriesID, occurrenceStart, reason, actorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("cancel override %s@%d: %w", seriesID, occurrenceStart, err)
	}
	return nil
}

// SetSchedule moves one occurrence in time, optionally replacing its notes.
// Host columns are untouched, and a cancelled occurrence refuses the write
// inside the statement; the returned bool reports whether it was applied.
func (r *OverrideRepository) SetSchedule(ctx context.Context, seriesID string, occurrenceStart int64, startUTC, endUTC int64, notes *string, actorID string) (bool, error) {
	const query = `INSERT INTO instance_overrides (series_id, occurrence_start_utc, start_utc, end_utc, notes, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (series_id, occurrence_start_utc) DO UPDATE SET start_utc = EXCLUDED.start_utc, end_utc = EXCLUDED.end_utc, notes = COALESCE(EXCLUDED.notes, instance_overrides.notes), updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
WHERE instance_overrides.cancelled = FALSE`
	res, err := r.db.ExecContext(ctx, query, seriesID, occurrenceStart, startUTC, endUTC, notes, actorID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set schedule on override %s@%d: %w", seriesID, occurrenceStart, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set schedule on override %s@%d: %w", seriesID, occurrenceStart, err)
	}
	return affected > 0, nil
}
