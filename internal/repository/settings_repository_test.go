package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsched/office-hours-api/internal/models"
)

func TestSettingsRepositoryGetFallsBackToDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM global_settings WHERE id = 1")).
		WillReturnError(sql.ErrNoRows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, settings.ForwardWindowMonths)
	assert.Equal(t, 60, settings.DefaultEventDurationMinutes)
	assert.False(t, settings.ClaimsPaused)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetReadsRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	rows := sqlmock.NewRows([]string{"id", "forward_window_months", "default_event_duration_minutes", "claims_paused", "brand_title", "brand_link", "updated_at"}).
		AddRow(1, 3, 45, true, "Office Hours", "https://example.com", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM global_settings WHERE id = 1")).
		WillReturnRows(rows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, settings.ForwardWindowMonths)
	assert.True(t, settings.ClaimsPaused)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO global_settings .*ON CONFLICT \\(id\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	settings := models.DefaultGlobalSettings()
	settings.ClaimsPaused = true
	require.NoError(t, repo.Upsert(context.Background(), &settings))
	assert.NoError(t, mock.ExpectationsWereMet())
}
