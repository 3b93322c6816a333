package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentRepository is the interface that wraps methods for Enrollment table data access
type EnrollmentRepository interface {
	// Method Create inserts a new enrollment. Its ID is set on success.
	//
	// If the student is already enrolled in the course, an error wrapping models.ErrConflict will be returned.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Method ExistsByStudentAndCourse checks if the student is already enrolled in the course.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByStudentAndCourse(ctx context.Context, studentID, courseID int) (bool, error)
	// Method GetByID retrieves an enrollment.
	//
	// If the enrollment does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Enrollment, error)
	// Method GetByStudent retrieves the enrollments of a student with course titles.
	GetByStudent(ctx context.Context, studentID int) ([]models.EnrollmentListItem, error)
	// Method GetAll retrieves every enrollment with student and course details.
	GetAll(ctx context.Context) ([]models.EnrollmentListItem, error)
	// Method UpdateStatus changes the status of an enrollment.
	//
	// If the enrollment does not exist, an error wrapping models.ErrNotFound will be returned.
	UpdateStatus(ctx context.Context, id int, status models.EnrollmentStatus) error
}

// EnrollmentCourseRepository is the interface that wraps the course lookup
type EnrollmentCourseRepository interface {
	// Method GetByID retrieves a course.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.CourseListItem, error)
}

// enrollmentService implements EnrollmentService
type enrollmentService struct {
	enrollmentRepo EnrollmentRepository
	courseRepo     EnrollmentCourseRepository
	logger         *zap.Logger
	now            func() time.Time
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(enrollmentRepo EnrollmentRepository, courseRepo EnrollmentCourseRepository, logger *zap.Logger) *enrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// Enroll creates an active enrollment of studentID in courseID
func (s *enrollmentService) Enroll(ctx context.Context, studentID int, req *models.EnrollRequest) (*models.Enrollment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	exists, err := s.enrollmentRepo.ExistsByStudentAndCourse(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("enrollment %w", models.ErrConflict)
	}

	enrollment := &models.Enrollment{
		StudentID:  studentID,
		CourseID:   req.CourseID,
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: s.now().UTC(),
	}
	// The unique key still rejects a concurrent duplicate with ErrConflict
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}

	s.logger.Info("enrollment created",
		zap.Int("enrollment_id", enrollment.ID),
		zap.Int("student_id", studentID),
		zap.Int("course_id", req.CourseID),
	)
	return enrollment, nil
}

// ListStudentEnrollments returns the enrollments of one student
func (s *enrollmentService) ListStudentEnrollments(ctx context.Context, studentID int) ([]models.EnrollmentListItem, error) {
	return s.enrollmentRepo.GetByStudent(ctx, studentID)
}

// ListAllEnrollments returns every enrollment
func (s *enrollmentService) ListAllEnrollments(ctx context.Context) ([]models.EnrollmentListItem, error) {
	return s.enrollmentRepo.GetAll(ctx)
}

// UpdateStatus changes the status of an enrollment and returns it
func (s *enrollmentService) UpdateStatus(ctx context.Context, id int, req *models.UpdateEnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	status, err := models.ParseEnrollmentStatus(req.Status)
	if err != nil {
		return nil, err
	}

	if err := s.enrollmentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("enrollment status changed", zap.Int("enrollment_id", id), zap.String("status", string(status)))
	return s.enrollmentRepo.GetByID(ctx, id)
}
