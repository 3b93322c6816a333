package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// progressRepository implements ProgressRepository
type progressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		db:     db,
		logger: logger,
	}
}

const progressColumns = `id, enrollment_id, content_id, percent_complete, completed, last_accessed_at`

func scanProgress(row interface{ Scan(...any) error }) (*models.Progress, error) {
	progress := &models.Progress{}
	err := row.Scan(
		&progress.ID,
		&progress.EnrollmentID,
		&progress.ContentID,
		&progress.PercentComplete,
		&progress.Completed,
		&progress.LastAccessedAt,
	)
	return progress, err
}

// GetByEnrollmentAndContent retrieves the progress row of one content within one enrollment
func (r *progressRepository) GetByEnrollmentAndContent(ctx context.Context, enrollmentID, contentID int) (*models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE enrollment_id = ? AND content_id = ?`

	progress, err := scanProgress(conn(ctx, r.db).QueryRowContext(ctx, query, enrollmentID, contentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("progress")
	}
	if err != nil {
		r.logger.Error("failed to get progress", zap.Error(err),
			zap.Int("enrollment_id", enrollmentID), zap.Int("content_id", contentID))
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return progress, nil
}

// GetByEnrollmentID retrieves all progress rows of an enrollment
func (r *progressRepository) GetByEnrollmentID(ctx context.Context, enrollmentID int) ([]models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM progress WHERE enrollment_id = ? ORDER BY content_id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, enrollmentID)
	if err != nil {
		r.logger.Error("failed to query progress", zap.Error(err), zap.Int("enrollment_id", enrollmentID))
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	records := make([]models.Progress, 0)
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			r.logger.Error("failed to scan progress", zap.Error(err))
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, *progress)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating progress", zap.Error(err))
		return nil, fmt.Errorf("error iterating progress: %w", err)
	}

	return records, nil
}

// Save inserts or updates the progress row keyed by (enrollment_id, content_id) and sets progress.ID.
// LAST_INSERT_ID(id) makes the driver report the existing row's id when the key already exists.
func (r *progressRepository) Save(ctx context.Context, progress *models.Progress) error {
	query := `
		INSERT INTO progress (enrollment_id, content_id, percent_complete, completed, last_accessed_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			id = LAST_INSERT_ID(id),
			percent_complete = VALUES(percent_complete),
			completed = VALUES(completed),
			last_accessed_at = VALUES(last_accessed_at)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		progress.EnrollmentID,
		progress.ContentID,
		progress.PercentComplete,
		progress.Completed,
		progress.LastAccessedAt,
	)
	if err != nil {
		r.logger.Error("failed to save progress", zap.Error(err),
			zap.Int("enrollment_id", progress.EnrollmentID), zap.Int("content_id", progress.ContentID))
		return fmt.Errorf("failed to save progress: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	progress.ID = int(id)
	return nil
}
