package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/internal/storage"
	"go.uber.org/zap"
)

// ContentRepository is the interface that wraps methods for Content table data access
type ContentRepository interface {
	ContentCatalog
	// Method Create inserts a new content item. Its ID is set on success.
	//
	// If some error occurs, the error will be returned.
	Create(ctx context.Context, content *models.Content) error
	// Method GetByID retrieves a content item.
	//
	// If the content does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Content, error)
	// Method Delete removes a content item and its progress rows.
	//
	// If the content does not exist, an error wrapping models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// ContentCourseRepository is the interface that wraps the course lookup
type ContentCourseRepository interface {
	// Method GetByID retrieves a course.
	//
	// If the course does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.CourseListItem, error)
}

// FileStorage stores and removes upload files
type FileStorage interface {
	FileRemover
	// Method Save stores the file under a unique name derived from originalName.
	//
	// "r" must be rewindable so the file can be retried on a fallback backend.
	//
	// If no backend accepts the file, the error will be returned together with "nil" value.
	Save(ctx context.Context, r io.ReadSeeker, originalName, contentType string) (*storage.StoredFile, error)
}

// contentService implements ContentService
type contentService struct {
	contentRepo ContentRepository
	courseRepo  ContentCourseRepository
	files       FileStorage
	logger      *zap.Logger
	now         func() time.Time
}

// NewContentService creates a new content service
func NewContentService(contentRepo ContentRepository, courseRepo ContentCourseRepository, files FileStorage, logger *zap.Logger) *contentService {
	return &contentService{
		contentRepo: contentRepo,
		courseRepo:  courseRepo,
		files:       files,
		logger:      logger,
		now:         time.Now,
	}
}

// UploadContent stores the uploaded file and records it as course content
func (s *contentService) UploadContent(ctx context.Context, req *models.UploadContentRequest, file io.ReadSeeker, filename, mimeType string) (*models.Content, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = mimeType
	}

	stored, err := s.files.Save(ctx, file, filename, contentType)
	if err != nil {
		return nil, err
	}

	content := &models.Content{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		FileURL:     stored.URL,
		StorageKey:  stored.Key,
		ContentType: contentType,
		OrderIndex:  req.OrderIndex,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		// Drop the orphaned file
		if delErr := s.files.Delete(ctx, stored.Key); delErr != nil {
			s.logger.Warn("failed to remove file after content insert failed", zap.Error(delErr), zap.String("key", stored.Key))
		}
		return nil, err
	}

	s.logger.Info("content uploaded",
		zap.Int("content_id", content.ID),
		zap.Int("course_id", content.CourseID),
		zap.String("backend", stored.Backend),
		zap.Int64("size", stored.Size),
	)
	return content, nil
}

// AddContent records content whose file is already hosted elsewhere
func (s *contentService) AddContent(ctx context.Context, req *models.AddContentRequest) (*models.Content, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	content := &models.Content{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		ContentType: req.ContentType,
		OrderIndex:  req.OrderIndex,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		return nil, err
	}

	s.logger.Info("content added", zap.Int("content_id", content.ID), zap.Int("course_id", content.CourseID))
	return content, nil
}

// ListContents returns the contents of a course in display order
func (s *contentService) ListContents(ctx context.Context, courseID int) ([]models.Content, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.contentRepo.GetByCourseID(ctx, courseID)
}

// DeleteContent removes a content item. A file that cannot be removed is logged and the row is deleted anyway.
func (s *contentService) DeleteContent(ctx context.Context, id int) error {
	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if content.StorageKey != "" {
		if err := s.files.Delete(ctx, content.StorageKey); err != nil {
			s.logger.Warn("failed to delete content file",
				zap.Error(err),
				zap.Int("content_id", id),
				zap.String("key", content.StorageKey),
			)
		}
	}

	if err := s.contentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("content deleted", zap.Int("content_id", id), zap.Int("course_id", content.CourseID))
	return nil
}
