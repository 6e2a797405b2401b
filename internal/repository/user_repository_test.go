package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsched/office-hours-api/internal/models"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "status", "hosted_count", "email_on_assigned", "email_on_removed", "email_on_cancelled", "email_on_time_changed", "created_at", "updated_at"})
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1)")).
		WithArgs("host@example.com").
		WillReturnRows(userRows().AddRow("u1", "host@example.com", "hash", "Casey Host", "USER", "ACTIVE", 3, true, true, true, true, time.Now(), time.Now()))

	user, err := repo.FindByEmail(context.Background(), "host@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, 3, user.HostedCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryHasOOOOverlap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM ooo_blocks WHERE user_id = $1 AND start_utc < $3 AND end_utc > $2)")).
		WithArgs("u1", int64(100), int64(200)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	overlaps, err := repo.HasOOOOverlap(context.Background(), "u1", 100, 200)
	require.NoError(t, err)
	assert.True(t, overlaps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryReplaceOOOBlocks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ooo_blocks WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO ooo_blocks").
		WithArgs(sqlmock.AnyArg(), "u1", int64(100), int64(200)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceOOOBlocks(context.Background(), "u1", []models.OOOBlock{{StartUTC: 100, EndUTC: 200}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryIncrementHostedCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET hosted_count = hosted_count + 1")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementHostedCount(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDecrementHostedCountFloorsAtZero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET hosted_count = GREATEST(hosted_count - 1, 0)")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DecrementHostedCount(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateProfilePersistsEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET email = .*, full_name = .*, role = .*, updated_at = .* WHERE id = .*").
		WithArgs("casey.host@example.com", "Casey Host", "USER", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProfile(context.Background(), &models.User{
		ID:       "u1",
		Email:    "casey.host@example.com",
		FullName: "Casey Host",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateNotificationSettings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_on_assigned = $2")).
		WithArgs("u1", true, false, true, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateNotificationSettings(context.Background(), "u1", models.NotificationSettings{
		EmailOnAssigned:  true,
		EmailOnCancelled: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
