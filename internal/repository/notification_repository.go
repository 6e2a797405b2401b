package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ohsched/office-hours-api/internal/models"
)

const notificationColumns = "id, kind, recipient_id, recipient_email, subject, body_text, ics_payload, status, error_message, created_at, sent_at"

// NotificationRepository provides persistence for the outbox table.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a job to the outbox.
func (r *NotificationRepository) Create(ctx context.Context, job *models.NotificationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.NotificationPending
	}

	const query = `INSERT INTO notification_jobs (id, kind, recipient_id, recipient_email, subject, body_text, ics_payload, status, error_message, created_at, sent_at) VALUES (:id, :kind, :recipient_id, :recipient_email, :subject, :body_text, :ics_payload, :status, :error_message, :created_at, :sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create notification job: %w", err)
	}
	return nil
}

// FindByID loads a single outbox job.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.NotificationJob, error) {
	query := fmt.Sprintf("SELECT %s FROM notification_jobs WHERE id = $1", notificationColumns)
	var job models.NotificationJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListPending returns the oldest pending jobs up to the given limit.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]models.NotificationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM notification_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT %d", notificationColumns, limit)
	var jobs []models.NotificationJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.NotificationPending); err != nil {
		return nil, fmt.Errorf("list pending notification jobs: %w", err)
	}
	return jobs, nil
}

// List returns jobs filtered by status with pagination, newest first.
func (r *NotificationRepository) List(ctx context.Context, status *models.NotificationStatus, page, pageSize int) ([]models.NotificationJob, int, error) {
	base := "FROM notification_jobs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", notificationColumns, base, pageSize, offset)
	var jobs []models.NotificationJob
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notification jobs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notification jobs: %w", err)
	}

	return jobs, total, nil
}

// MarkSent transitions a job to SENT and stamps the delivery time.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string) error {
	const query = `UPDATE notification_jobs SET status = $2, error_message = NULL, sent_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationSent, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification job %s sent: %w", id, err)
	}
	return nil
}

// MarkFailed transitions a job to FAILED and records the delivery error.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	const query = `UPDATE notification_jobs SET status = $2, error_message = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.NotificationFailed, reason); err != nil {
		return fmt.Errorf("mark notification job %s failed: %w", id, err)
	}
	return nil
}
