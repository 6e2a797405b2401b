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

const userColumns = "id, email, password_hash, full_name, role, status, hosted_count, email_on_assigned, email_on_removed, email_on_cancelled, email_on_time_changed, created_at, updated_at"

// UserRepository provides persistence for users and their OOO blocks.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE LOWER(email) = LOWER($1)", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users with optional filtering and pagination.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	base := "FROM users WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", userColumns, base, size, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// Create stores a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, full_name, role, status, hosted_count, email_on_assigned, email_on_removed, email_on_cancelled, email_on_time_changed, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :status, :hosted_count, :email_on_assigned, :email_on_removed, :email_on_cancelled, :email_on_time_changed, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByIDs loads the users for a set of ids. Missing ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM users WHERE id IN (?)", userColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build user id query: %w", err)
	}
	query = r.db.Rebind(query)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}
	return users, nil
}

// UpdatePassword replaces a user's credential hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password for %s: %w", id, err)
	}
	return nil
}

// UpdateProfile persists the mutable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = :email, full_name = :full_name, role = :role, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	return nil
}

// SetStatus enables or disables a user account.
func (r *UserRepository) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	const query = `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set user %s status: %w", id, err)
	}
	return nil
}

// UpdateNotificationSettings persists the per-user email preference flags.
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, id string, settings models.NotificationSettings) error {
	const query = `UPDATE users SET email_on_assigned = $2, email_on_removed = $3, email_on_cancelled = $4, email_on_time_changed = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, settings.EmailOnAssigned, settings.EmailOnRemoved, settings.EmailOnCancelled, settings.EmailOnTimeChanged, time.Now().UTC()); err != nil {
		return fmt.Errorf("update notification settings for %s: %w", id, err)
	}
	return nil
}

// IncrementHostedCount bumps the hosted-session counter for a user.
func (r *UserRepository) IncrementHostedCount(ctx context.Context, id string) error {
	const query = `UPDATE users SET hosted_count = hosted_count + 1, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment hosted count for %s: %w", id, err)
	}
	return nil
}

// DecrementHostedCount drops the hosted-session counter for a user when an
// assignment is released. The counter never goes below zero.
func (r *UserRepository) DecrementHostedCount(ctx context.Context, id string) error {
	const query = `UPDATE users SET hosted_count = GREATEST(hosted_count - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("decrement hosted count for %s: %w", id, err)
	}
	return nil
}

// ReplaceOOOBlocks swaps a user's out-of-office intervals wholesale.
func (r *UserRepository) ReplaceOOOBlocks(ctx context.Context, userID string, blocks []models.OOOBlock) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace ooo blocks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM ooo_blocks WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear ooo blocks for %s: %w", userID, err)
	}
	for i := range blocks {
		block := blocks[i]
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		block.UserID = userID
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO ooo_blocks (id, user_id, start_utc, end_utc) VALUES (:id, :user_id, :start_utc, :end_utc)`, block); err != nil {
			return fmt.Errorf("insert ooo block for %s: %w", userID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace ooo blocks: %w", err)
	}
	return nil
}

// ListOOOBlocks returns a user's out-of-office intervals ordered by start.
func (r *UserRepository) ListOOOBlocks(ctx context.Context, userID string) ([]models.OOOBlock, error) {
	const query = `SELECT id, user_id, start_utc, end_utc FROM ooo_blocks WHERE user_id = $1 ORDER BY start_utc ASC`
	var blocks []models.OOOBlock
	if err := r.db.SelectContext(ctx, &blocks, query, userID); err != nil {
		return nil, fmt.Errorf("list ooo blocks for %s: %w", userID, err)
	}
	return blocks, nil
}

// HasOOOOverlap reports whether any of the user's blocks intersect [start, end).
func (r *UserRepository) HasOOOOverlap(ctx context.Context, userID string, start, end int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM ooo_blocks WHERE user_id = $1 AND start_utc < $3 AND end_utc > $2)`
	var overlaps bool
	if err := r.db.GetContext(ctx, &overlaps, query, userID, start, end); err != nil {
		return false, fmt.Errorf("check ooo overlap for %s: %w", userID, err)
	}
	return overlaps, nil
}
