package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// enrollmentRepository implements EnrollmentRepository
type enrollmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB, logger *zap.Logger) *enrollmentRepository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

const enrollmentColumns = `id, student_id, course_id, status, enrolled_at, progress_percentage`

const enrollmentListQuery = `
	SELECT e.id, e.student_id, e.course_id, e.status, e.enrolled_at, e.progress_percentage,
		u.full_name, u.email, c.title
	FROM enrollments e
	JOIN users u ON u.id = e.student_id
	JOIN courses c ON c.id = e.course_id
`

func scanEnrollment(row interface{ Scan(...any) error }) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}
	err := row.Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollment.Status,
		&enrollment.EnrolledAt,
		&enrollment.ProgressPercentage,
	)
	return enrollment, err
}

// Create inserts a new enrollment
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_id, status, enrolled_at, progress_percentage)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		enrollment.StudentID,
		enrollment.CourseID,
		enrollment.Status,
		enrollment.EnrolledAt,
		enrollment.ProgressPercentage,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("enrollment %w", models.ErrConflict)
		}
		r.logger.Error("failed to create enrollment", zap.Error(err),
			zap.Int("student_id", enrollment.StudentID), zap.Int("course_id", enrollment.CourseID))
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	enrollment.ID = int(id)
	return nil
}

// ExistsByStudentAndCourse checks if a student is already enrolled in a course
func (r *enrollmentRepository) ExistsByStudentAndCourse(ctx context.Context, studentID, courseID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = ? AND course_id = ?)`

	var exists bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, studentID, courseID).Scan(&exists); err != nil {
		r.logger.Error("failed to check enrollment existence", zap.Error(err),
			zap.Int("student_id", studentID), zap.Int("course_id", courseID))
		return false, fmt.Errorf("failed to check enrollment existence: %w", err)
	}

	return exists, nil
}

// GetByID retrieves an enrollment by ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	return r.getOne(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = ?`, id)
}

// GetByIDForUpdate retrieves an enrollment and locks its row until the surrounding transaction ends.
// Outside a transaction the lock is released as soon as the statement completes.
func (r *enrollmentRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Enrollment, error) {
	return r.getOne(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = ? FOR UPDATE`, id)
}

// GetByStudentAndCourse retrieves the enrollment of a student in a course
func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	return r.getOne(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE student_id = ? AND course_id = ?`, studentID, courseID)
}

func (r *enrollmentRepository) getOne(ctx context.Context, query string, args ...any) (*models.Enrollment, error) {
	enrollment, err := scanEnrollment(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("enrollment")
	}
	if err != nil {
		r.logger.Error("failed to get enrollment", zap.Error(err), zap.Any("args", args))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return enrollment, nil
}

// GetByStudent retrieves the enrollments of a student, newest first
func (r *enrollmentRepository) GetByStudent(ctx context.Context, studentID int) ([]models.EnrollmentListItem, error) {
	return r.list(ctx, enrollmentListQuery+` WHERE e.student_id = ? ORDER BY e.enrolled_at DESC, e.id DESC`, studentID)
}

// GetAll retrieves all enrollments, newest first
func (r *enrollmentRepository) GetAll(ctx context.Context) ([]models.EnrollmentListItem, error) {
	return r.list(ctx, enrollmentListQuery+` ORDER BY e.enrolled_at DESC, e.id DESC`)
}

func (r *enrollmentRepository) list(ctx context.Context, query string, args ...any) ([]models.EnrollmentListItem, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query enrollments", zap.Error(err))
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	items := make([]models.EnrollmentListItem, 0)
	for rows.Next() {
		var item models.EnrollmentListItem
		if err := rows.Scan(
			&item.ID,
			&item.StudentID,
			&item.CourseID,
			&item.Status,
			&item.EnrolledAt,
			&item.ProgressPercentage,
			&item.StudentName,
			&item.StudentEmail,
			&item.CourseTitle,
		); err != nil {
			r.logger.Error("failed to scan enrollment", zap.Error(err))
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating enrollments", zap.Error(err))
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return items, nil
}

// UpdateStatus sets the status of an enrollment
func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error {
	query := `UPDATE enrollments SET status = ? WHERE id = ?`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("failed to update enrollment status", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to update enrollment status: %w", err)
	}

	return checkAffected(result, "enrollment")
}

// UpdateProgressPercentage stores the cached completion percentage of an enrollment
func (r *enrollmentRepository) UpdateProgressPercentage(ctx context.Context, id int, percentage float64) error {
	query := `UPDATE enrollments SET progress_percentage = ? WHERE id = ?`

	result, err := conn(ctx, r.db).ExecContext(ctx, query, percentage, id)
	if err != nil {
		r.logger.Error("failed to update enrollment progress", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to update enrollment progress: %w", err)
	}

	return checkAffected(result, "enrollment")
}

// GetReminderTargets retrieves active enrollments together with the data a reminder needs
func (r *enrollmentRepository) GetReminderTargets(ctx context.Context) ([]models.ReminderTarget, error) {
	query := `
		SELECT e.id, u.full_name, u.email, c.title, e.progress_percentage
		FROM enrollments e
		JOIN users u ON u.id = e.student_id
		JOIN courses c ON c.id = e.course_id
		WHERE e.status = ?
		ORDER BY e.id
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, models.EnrollmentStatusActive)
	if err != nil {
		r.logger.Error("failed to query reminder targets", zap.Error(err))
		return nil, fmt.Errorf("failed to query reminder targets: %w", err)
	}
	defer rows.Close()

	targets := make([]models.ReminderTarget, 0)
	for rows.Next() {
		var target models.ReminderTarget
		if err := rows.Scan(
			&target.EnrollmentID,
			&target.StudentName,
			&target.StudentEmail,
			&target.CourseTitle,
			&target.ProgressPercentage,
		); err != nil {
			r.logger.Error("failed to scan reminder target", zap.Error(err))
			return nil, fmt.Errorf("failed to scan reminder target: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating reminder targets", zap.Error(err))
		return nil, fmt.Errorf("error iterating reminder targets: %w", err)
	}

	return targets, nil
}
