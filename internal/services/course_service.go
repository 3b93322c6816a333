package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// CourseRepository is the interface that wraps methods for Course table data access
type CourseRepository interface {
	// Method Create inserts a new course. Its ID is set on success.
	//
	// If the instructor already has a course with that title, an error wrapping models.ErrConflict will be returned.
	Create(ctx context.Context, course *models.Course) error
	// Method ExistsByTitleAndInstructor checks if the instructor already has a course with that title.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByTitleAndInstructor(ctx context.Context, title string, instructorID int) (bool, error)
	// Method GetByID retrieves a course with its instructor's name and email.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.CourseListItem, error)
	// Method GetAll retrieves every course.
	GetAll(ctx context.Context) ([]models.CourseListItem, error)
	// Method GetByInstructor retrieves the courses of one instructor.
	GetByInstructor(ctx context.Context, instructorID int) ([]models.CourseListItem, error)
	// Method Delete removes a course; contents, enrollments and progress go with it.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// FileRemover deletes stored upload files
type FileRemover interface {
	// Method Delete removes the stored file identified by key.
	//
	// If the file cannot be removed from any backend, the error will be returned.
	Delete(ctx context.Context, key string) error
}

// courseService implements CourseService
type courseService struct {
	courseRepo  CourseRepository
	contentRepo ContentCatalog
	files       FileRemover
	logger      *zap.Logger
	now         func() time.Time
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, contentRepo ContentCatalog, files FileRemover, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo:  courseRepo,
		contentRepo: contentRepo,
		files:       files,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateCourse creates a course taught by instructorID
func (s *courseService) CreateCourse(ctx context.Context, instructorID int, req *models.CreateCourseRequest) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	exists, err := s.courseRepo.ExistsByTitleAndInstructor(ctx, req.Title, instructorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("course %q %w", req.Title, models.ErrConflict)
	}

	createdAt := s.now().UTC()
	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: &instructorID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.Int("course_id", course.ID), zap.Int("instructor_id", instructorID))
	return course, nil
}

// ListCourses returns every course
func (s *courseService) ListCourses(ctx context.Context) ([]models.CourseListItem, error) {
	return s.courseRepo.GetAll(ctx)
}

// ListInstructorCourses returns the courses taught by instructorID
func (s *courseService) ListInstructorCourses(ctx context.Context, instructorID int) ([]models.CourseListItem, error) {
	return s.courseRepo.GetByInstructor(ctx, instructorID)
}

// GetCourse returns a course with its ordered contents
func (s *courseService) GetCourse(ctx context.Context, id int) (*models.CourseDetail, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	contents, err := s.contentRepo.GetByCourseID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.CourseDetail{CourseListItem: *course, Contents: contents}, nil
}

// DeleteCourse removes a course and the stored files of its contents.
// File removal is best effort; the course row is deleted regardless.
func (s *courseService) DeleteCourse(ctx context.Context, id int) error {
	if _, err := s.courseRepo.GetByID(ctx, id); err != nil {
		return err
	}

	contents, err := s.contentRepo.GetByCourseID(ctx, id)
	if err != nil {
		return err
	}
	for _, content := range contents {
		if content.StorageKey == "" {
			continue
		}
		if err := s.files.Delete(ctx, content.StorageKey); err != nil {
			s.logger.Warn("failed to delete content file",
				zap.Error(err),
				zap.Int("course_id", id),
				zap.Int("content_id", content.ID),
				zap.String("key", content.StorageKey),
			)
		}
	}

	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("course deleted", zap.Int("course_id", id), zap.Int("contents", len(contents)))
	return nil
}
