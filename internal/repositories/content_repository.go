package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// contentRepository implements ContentRepository
type contentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *sql.DB, logger *zap.Logger) *contentRepository {
	return &contentRepository{
		db:     db,
		logger: logger,
	}
}

const contentColumns = `id, course_id, title, description, file_url, storage_key, content_type, order_index, created_at`

func scanContent(row interface{ Scan(...any) error }) (*models.Content, error) {
	content := &models.Content{}
	err := row.Scan(
		&content.ID,
		&content.CourseID,
		&content.Title,
		&content.Description,
		&content.FileURL,
		&content.StorageKey,
		&content.ContentType,
		&content.OrderIndex,
		&content.CreatedAt,
	)
	return content, err
}

// Create inserts a new content item
func (r *contentRepository) Create(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO contents (course_id, title, description, file_url, storage_key, content_type, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		content.CourseID,
		content.Title,
		content.Description,
		content.FileURL,
		content.StorageKey,
		content.ContentType,
		content.OrderIndex,
		content.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create content", zap.Error(err), zap.Int("course_id", content.CourseID))
		return fmt.Errorf("failed to create content: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	content.ID = int(id)
	return nil
}

// GetByID retrieves a content item by ID
func (r *contentRepository) GetByID(ctx context.Context, id int) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = ?`

	content, err := scanContent(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("content")
	}
	if err != nil {
		r.logger.Error("failed to get content by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get content by id: %w", err)
	}

	return content, nil
}

// GetByCourseID retrieves the contents of a course in display order
func (r *contentRepository) GetByCourseID(ctx context.Context, courseID int) ([]models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE course_id = ? ORDER BY order_index, id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, courseID)
	if err != nil {
		r.logger.Error("failed to query contents", zap.Error(err), zap.Int("course_id", courseID))
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	contents := make([]models.Content, 0)
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			r.logger.Error("failed to scan content", zap.Error(err))
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, *content)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating contents", zap.Error(err))
		return nil, fmt.Errorf("error iterating contents: %w", err)
	}

	return contents, nil
}

// Delete removes a content item; its progress rows cascade
func (r *contentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM contents WHERE id = ?`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete content", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete content: %w", err)
	}

	return checkAffected(result, "content")
}
