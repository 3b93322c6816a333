package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// courseRepository implements CourseRepository
type courseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *courseRepository {
	return &courseRepository{
		db:     db,
		logger: logger,
	}
}

const courseListQuery = `
	SELECT c.id, c.title, c.description, c.instructor_id, c.created_at, c.updated_at,
		COALESCE(u.full_name, ''), COALESCE(u.email, '')
	FROM courses c
	LEFT JOIN users u ON u.id = c.instructor_id
`

func scanCourseListItem(row interface{ Scan(...any) error }) (*models.CourseListItem, error) {
	item := &models.CourseListItem{}
	var instructorID sql.NullInt64
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&instructorID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.InstructorName,
		&item.InstructorEmail,
	)
	if err != nil {
		return nil, err
	}
	if instructorID.Valid {
		id := int(instructorID.Int64)
		item.InstructorID = &id
	}
	return item, nil
}

// Create inserts a new course
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `INSERT INTO courses (title, description, instructor_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		course.Title,
		course.Description,
		course.InstructorID,
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("course with title %q %w", course.Title, models.ErrConflict)
		}
		r.logger.Error("failed to create course", zap.Error(err))
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = int(id)
	return nil
}

// ExistsByTitleAndInstructor checks if an instructor already has a course with the given title
func (r *courseRepository) ExistsByTitleAndInstructor(ctx context.Context, title string, instructorID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE title = ? AND instructor_id = ?)`

	var exists bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, title, instructorID).Scan(&exists); err != nil {
		r.logger.Error("failed to check course existence", zap.Error(err), zap.String("title", title))
		return false, fmt.Errorf("failed to check course existence: %w", err)
	}

	return exists, nil
}

// GetByID retrieves a course with its instructor's name and email
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.CourseListItem, error) {
	query := courseListQuery + ` WHERE c.id = ?`

	item, err := scanCourseListItem(conn(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("course")
	}
	if err != nil {
		r.logger.Error("failed to get course by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return item, nil
}

// GetAll retrieves all courses, newest first
func (r *courseRepository) GetAll(ctx context.Context) ([]models.CourseListItem, error) {
	return r.list(ctx, courseListQuery+` ORDER BY c.created_at DESC, c.id DESC`)
}

// GetByInstructor retrieves the courses of one instructor, newest first
func (r *courseRepository) GetByInstructor(ctx context.Context, instructorID int) ([]models.CourseListItem, error) {
	return r.list(ctx, courseListQuery+` WHERE c.instructor_id = ? ORDER BY c.created_at DESC, c.id DESC`, instructorID)
}

func (r *courseRepository) list(ctx context.Context, query string, args ...any) ([]models.CourseListItem, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query courses", zap.Error(err))
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.CourseListItem, 0)
	for rows.Next() {
		item, err := scanCourseListItem(rows)
		if err != nil {
			r.logger.Error("failed to scan course", zap.Error(err))
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *item)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating courses", zap.Error(err))
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

// Delete removes a course; contents, enrollments and progress cascade
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM courses WHERE id = ?`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete course", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete course: %w", err)
	}

	return checkAffected(result, "course")
}
