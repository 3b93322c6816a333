package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestDB creates a sqlmock database shared by the repository tests
func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}
	return db, mock, cleanup
}

func duplicateEntryError() error {
	return &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"}
}

func TestTransactor_WithinTx(t *testing.T) {
	tests := []struct {
		name          string
		fn            func(ctx context.Context) error
		setupMock     func(sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "commit on success",
			fn:   func(ctx context.Context) error { return nil },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
		},
		{
			name: "rollback on error",
			fn:   func(ctx context.Context) error { return errors.New("work failed") },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			expectedError: "work failed",
		},
		{
			name: "begin error",
			fn:   func(ctx context.Context) error { return nil },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			expectedError: "failed to begin transaction",
		},
		{
			name: "commit error",
			fn:   func(ctx context.Context) error { return nil },
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errors.New("deadlock"))
			},
			expectedError: "failed to commit transaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			err := NewTransactor(db, zap.NewNop()).WithinTx(context.Background(), tt.fn)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransactor_NestedJoinsOuterTx(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	transactor := NewTransactor(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE enrollments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := transactor.WithinTx(context.Background(), func(ctx context.Context) error {
		return transactor.WithinTx(ctx, func(ctx context.Context) error {
			_, ok := conn(ctx, db).(*sql.Tx)
			assert.True(t, ok)
			_, err := conn(ctx, db).ExecContext(ctx, "UPDATE enrollments SET status = 'ACTIVE'")
			return err
		})
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateEntry(t *testing.T) {
	assert.True(t, isDuplicateEntry(duplicateEntryError()))
	assert.True(t, isDuplicateEntry(errors.Join(errors.New("wrapped"), duplicateEntryError())))
	assert.False(t, isDuplicateEntry(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicateEntry(errors.New("Error 1062")))
}

func TestCheckAffected(t *testing.T) {
	assert.NoError(t, checkAffected(sqlmock.NewResult(0, 1), "user"))

	err := checkAffected(sqlmock.NewResult(0, 0), "user")
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, "user not found", err.Error())

	err = checkAffected(sqlmock.NewErrorResult(errors.New("boom")), "user")
	assert.Contains(t, err.Error(), "failed to get rows affected")
}
