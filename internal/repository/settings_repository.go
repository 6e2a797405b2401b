package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ohsched/office-hours-api/internal/models"
)

// SettingsRepository provides persistence for the single-row settings table.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row, falling back to defaults when the row has
// never been written.
func (r *SettingsRepository) Get(ctx context.Context) (*models.GlobalSettings, error) {
	const query = `SELECT id, forward_window_months, default_event_duration_minutes, claims_paused, brand_title, brand_link, updated_at FROM global_settings WHERE id = 1`
	var settings models.GlobalSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultGlobalSettings()
			return &defaults, nil
		}
		return nil, fmt.Errorf("get global settings: %w", err)
	}
	return &settings, nil
}

// Upsert writes the settings row.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.GlobalSettings) error {
	settings.ID = 1
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO global_settings (id, forward_window_months, default_event_duration_minutes, claims_paused, brand_title, brand_link, updated_at)
VALUES (:id, :forward_window_months, :default_event_duration_minutes, :claims_paused, :brand_title, :brand_link, :updated_at)
ON CONFLICT (id) DO UPDATE SET forward_window_months = EXCLUDED.forward_window_months, default_event_duration_minutes = EXCLUDED.default_event_duration_minutes, claims_paused = EXCLUDED.claims_paused, brand_title = EXCLUDED.brand_title, brand_link = EXCLUDED.brand_link, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert global settings: %w", err)
	}
	return nil
}
