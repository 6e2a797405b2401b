package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ohsched/office-hours-api/internal/models"
)

const oneOffColumns = "id, title, notes, link, color, start_utc, end_utc, host_id, status, created_by, created_at, updated_at"

// EventRepository provides persistence for one-off (non-recurring) events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new one-off event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// FindByID loads a one-off event by id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.OneOffEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM one_off_events WHERE id = $1", oneOffColumns)
	var event models.OneOffEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListInWindow returns one-off events starting inside [windowStart, windowEnd).
func (r *EventRepository) ListInWindow(ctx context.Context, windowStart, windowEnd int64) ([]models.OneOffEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM one_off_events WHERE start_utc >= $1 AND start_utc < $2 ORDER BY start_utc ASC", oneOffColumns)
	var events []models.OneOffEvent
	if err := r.db.SelectContext(ctx, &events, query, windowStart, windowEnd); err != nil {
		return nil, fmt.Errorf("list one-off events in window: %w", err)
	}
	return events, nil
}

// Create stores a new one-off event.
func (r *EventRepository) Create(ctx context.Context, event *models.OneOffEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = models.EventStatusActive
	}

	const query = `INSERT INTO one_off_events (id, title, notes, link, color, start_utc, end_utc, host_id, status, created_by, created_at, updated_at) VALUES (:id, :title, :notes, :link, :color, :start_utc, :end_utc, :host_id, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create one-off event: %w", err)
	}
	return nil
}

// SetHost updates the host on a one-off event. A nil host unassigns it.
// Assigning onto a cancelled event is refused inside the statement (clearing
// is always allowed); the returned bool reports whether the write applied.
func (r *EventRepository) SetHost(ctx context.Context, id string, hostID *string) (bool, error) {
	const query = `UPDATE one_off_events SET host_id = $2, updated_at = $3 WHERE id = $1 AND (status <> 'CANCELLED' OR $2 IS NULL)`
	res, err := r.db.ExecContext(ctx, query, id, hostID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set host on one-off event %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set host on one-off event %s: %w", id, err)
	}
	return affected > 0, nil
}

// SetStatus updates the lifecycle status of a one-off event.
func (r *EventRepository) SetStatus(ctx context.Context, id string, status models.EventStatus) error {
	const query = `UPDATE one_off_events SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set status on one-off event %s: %w", id, err)
	}
	return nil
}

// SetTimes reschedules a one-off event. Cancelled events refuse the write
// inside the statement; the returned bool reports whether it was applied.
func (r *EventRepository) SetTimes(ctx context.Context, id string, startUTC, endUTC int64) (bool, error) {
	const query = `UPDATE one_off_events SET start_utc = $2, end_utc = $3, updated_at = $4 WHERE id = $1 AND status <> 'CANCELLED'`
	res, err := r.db.ExecContext(ctx, query, id, startUTC, endUTC, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set times on one-off event %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set times on one-off event %s: %w", id, err)
	}
	return affected > 0, nil
}
