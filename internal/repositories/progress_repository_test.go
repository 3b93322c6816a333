package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var progressRowColumns = []string{"id", "enrollment_id", "content_id", "percent_complete", "completed", "last_accessed_at"}

// setupProgressTestRepository creates a progress repository with a mock database
func setupProgressTestRepository(t *testing.T) (*progressRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, cleanup := setupTestDB(t)
	return NewProgressRepository(db, zap.NewNop()), mock, cleanup
}

func TestProgressRepository_Save(t *testing.T) {
	accessed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedID    int
		errorContains string
	}{
		{
			name: "insert",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO progress .+ ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID\(id\)`).
					WithArgs(30, 21, 57, false, accessed).
					WillReturnResult(sqlmock.NewResult(100, 1))
			},
			expectedID: 100,
		},
		{
			name: "update keeps existing id",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO progress`).
					WithArgs(30, 21, 57, false, accessed).
					WillReturnResult(sqlmock.NewResult(42, 2))
			},
			expectedID: 42,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO progress`).WillReturnError(errors.New("database error"))
			},
			errorContains: "failed to save progress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			progress := &models.Progress{EnrollmentID: 30, ContentID: 21, PercentComplete: 57, LastAccessedAt: accessed}
			err := repo.Save(context.Background(), progress)

			if tt.errorContains != "" {
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, progress.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepository_GetByEnrollmentAndContent(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows(progressRowColumns).AddRow(42, 30, 21, 100, true, now)
		mock.ExpectQuery(`FROM progress WHERE enrollment_id = \? AND content_id = \?`).
			WithArgs(30, 21).
			WillReturnRows(rows)

		progress, err := repo.GetByEnrollmentAndContent(context.Background(), 30, 21)

		require.NoError(t, err)
		assert.Equal(t, &models.Progress{ID: 42, EnrollmentID: 30, ContentID: 21, PercentComplete: 100, Completed: true, LastAccessedAt: now}, progress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM progress`).WithArgs(30, 21).WillReturnError(sql.ErrNoRows)

		progress, err := repo.GetByEnrollmentAndContent(context.Background(), 30, 21)

		assert.Nil(t, progress)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestProgressRepository_GetByEnrollmentID(t *testing.T) {
	repo, mock, cleanup := setupProgressTestRepository(t)
	defer cleanup()
	now := time.Now()

	rows := sqlmock.NewRows(progressRowColumns).
		AddRow(1, 30, 21, 100, true, now).
		AddRow(2, 30, 22, 57, false, now)
	mock.ExpectQuery(`FROM progress WHERE enrollment_id = \? ORDER BY content_id`).
		WithArgs(30).
		WillReturnRows(rows)

	records, err := repo.GetByEnrollmentID(context.Background(), 30)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Completed)
	assert.Equal(t, 57, records[1].PercentComplete)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepository_ScanError(t *testing.T) {
	repo, mock, cleanup := setupProgressTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows(progressRowColumns).AddRow("x", 30, 21, 100, true, time.Now())
	mock.ExpectQuery(`FROM progress`).WithArgs(30).WillReturnRows(rows)

	records, err := repo.GetByEnrollmentID(context.Background(), 30)

	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "failed to scan progress")
}
