package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// ProgressEnrollmentRepository is the interface that wraps enrollment lookups used while recording progress
type ProgressEnrollmentRepository interface {
	// Method GetByIDForUpdate retrieves an enrollment and locks its row for the rest of the transaction.
	//
	// "id" parameter is used to identify the enrollment.
	//
	// If the enrollment does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByIDForUpdate(ctx context.Context, id int) (*models.Enrollment, error)
	// Method GetByStudentAndCourse retrieves the enrollment of a student in a course.
	//
	// "studentID" parameter is used to identify the student.
	// "courseID" parameter is used to identify the course.
	//
	// If the student is not enrolled, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByStudentAndCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, error)
}

// ProgressContentRepository is the interface that wraps the content lookup
type ProgressContentRepository interface {
	// Method GetByID retrieves a content item.
	//
	// "id" parameter is used to identify the content.
	//
	// If the content does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Content, error)
}

// ProgressRepository is the interface that wraps methods for Progress table data access
type ProgressRepository interface {
	// Method GetByEnrollmentAndContent retrieves the progress row of one content within an enrollment.
	//
	// If no row exists yet, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByEnrollmentAndContent(ctx context.Context, enrollmentID, contentID int) (*models.Progress, error)
	// Method GetByEnrollmentID retrieves all progress rows of an enrollment.
	//
	// If some error occurs, the error will be returned together with "nil" value.
	GetByEnrollmentID(ctx context.Context, enrollmentID int) ([]models.Progress, error)
	// Method Save inserts the progress row or overwrites the row with the same enrollment and content.
	//
	// "progress" parameter receives the row ID after the call.
	//
	// If some error occurs, the error will be returned.
	Save(ctx context.Context, progress *models.Progress) error
}

// ProgressCourseRepository is the interface that wraps the course existence check
type ProgressCourseRepository interface {
	// Method GetByID retrieves a course.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.CourseListItem, error)
}

// EnrollmentAggregator recomputes the cached completion percentage of an enrollment
type EnrollmentAggregator interface {
	// Method Recompute derives and stores the completion percentage of the enrollment.
	//
	// "enrollmentID" parameter is used to identify the enrollment.
	//
	// If the enrollment does not exist, an error wrapping models.ErrNotFound will be returned together with "0" value.
	Recompute(ctx context.Context, enrollmentID int) (float64, error)
}

// progressService implements ProgressService
type progressService struct {
	courseRepo     ProgressCourseRepository
	enrollmentRepo ProgressEnrollmentRepository
	contentRepo    ProgressContentRepository
	progressRepo   ProgressRepository
	aggregator     EnrollmentAggregator
	transactor     Transactor
	logger         *zap.Logger
	now            func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(
	courseRepo ProgressCourseRepository,
	enrollmentRepo ProgressEnrollmentRepository,
	contentRepo ProgressContentRepository,
	progressRepo ProgressRepository,
	aggregator EnrollmentAggregator,
	transactor Transactor,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		contentRepo:    contentRepo,
		progressRepo:   progressRepo,
		aggregator:     aggregator,
		transactor:     transactor,
		logger:         logger,
		now:            time.Now,
	}
}

// RecordProgress stores the student's percentage for one content item and recomputes the enrollment.
// Saving the row and recomputing happen in one transaction that holds the enrollment row lock.
func (s *progressService) RecordProgress(ctx context.Context, enrollmentID, contentID, percent int) (*models.Progress, error) {
	if percent < 0 || percent > models.CompletionThreshold {
		return nil, fmt.Errorf("%w: percentComplete must be between 0 and %d", models.ErrValidation, models.CompletionThreshold)
	}

	var record *models.Progress
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		enrollment, err := s.enrollmentRepo.GetByIDForUpdate(ctx, enrollmentID)
		if err != nil {
			return err
		}

		content, err := s.contentRepo.GetByID(ctx, contentID)
		if err != nil {
			return err
		}
		if content.CourseID != enrollment.CourseID {
			return fmt.Errorf("content %d in course %d %w", contentID, enrollment.CourseID, models.ErrNotFound)
		}

		record, err = s.progressRepo.GetByEnrollmentAndContent(ctx, enrollmentID, contentID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			record = &models.Progress{EnrollmentID: enrollmentID, ContentID: contentID}
		case err != nil:
			return err
		}

		record.PercentComplete = percent
		record.Completed = models.IsCompleted(percent)
		record.LastAccessedAt = s.now().UTC()
		if err := s.progressRepo.Save(ctx, record); err != nil {
			return err
		}

		_, err = s.aggregator.Recompute(ctx, enrollmentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("progress recorded",
		zap.Int("enrollment_id", enrollmentID),
		zap.Int("content_id", contentID),
		zap.Int("percent", percent),
	)
	return record, nil
}

// UpdateProgress records progress on behalf of a student, resolving the enrollment from the course
func (s *progressService) UpdateProgress(ctx context.Context, studentID int, req *models.UpdateProgressRequest) (*models.Progress, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	// A student without an enrollment in the course gets "enrollment not found"
	enrollment, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, err
	}

	return s.RecordProgress(ctx, enrollment.ID, req.ContentID, *req.PercentComplete)
}

// GetCourseProgress returns every progress row the student has in a course
func (s *progressService) GetCourseProgress(ctx context.Context, studentID, courseID int) ([]models.Progress, error) {
	enrollment, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return s.progressRepo.GetByEnrollmentID(ctx, enrollment.ID)
}
