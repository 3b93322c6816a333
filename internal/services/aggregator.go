package services

import (
	"context"
	"math"

	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// Transactor runs a unit of work inside one database transaction
type Transactor interface {
	// Method WithinTx runs fn inside a transaction.
	//
	// Repository calls made with the context passed to fn join the transaction.
	//
	// If fn returns an error, the transaction is rolled back and the error is returned.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AggregatorEnrollmentRepository is the interface that wraps enrollment access needed by the aggregator
type AggregatorEnrollmentRepository interface {
	// Method GetByIDForUpdate retrieves an enrollment and locks its row for the rest of the transaction.
	//
	// "id" parameter is used to identify the enrollment.
	//
	// If the enrollment does not exist, an error wrapping models.ErrNotFound will be returned together with "nil" value.
	GetByIDForUpdate(ctx context.Context, id int) (*models.Enrollment, error)
	// Method UpdateProgressPercentage stores the cached completion percentage.
	//
	// "id" parameter is used to identify the enrollment.
	// "percentage" parameter is the recomputed value.
	//
	// If the enrollment does not exist, an error wrapping models.ErrNotFound will be returned.
	UpdateProgressPercentage(ctx context.Context, id int, percentage float64) error
}

// ContentCatalog is the interface that wraps the course content listing
type ContentCatalog interface {
	// Method GetByCourseID retrieves the contents of a course in display order.
	//
	// "courseID" parameter is used to identify the course.
	//
	// If some error occurs, the error will be returned together with "nil" value.
	GetByCourseID(ctx context.Context, courseID int) ([]models.Content, error)
}

// ProgressLister is the interface that wraps the per-enrollment progress listing
type ProgressLister interface {
	// Method GetByEnrollmentID retrieves all progress rows of an enrollment.
	//
	// "enrollmentID" parameter is used to identify the enrollment.
	//
	// If some error occurs, the error will be returned together with "nil" value.
	GetByEnrollmentID(ctx context.Context, enrollmentID int) ([]models.Progress, error)
}

// enrollmentAggregator is the only writer of Enrollment.ProgressPercentage
type enrollmentAggregator struct {
	enrollmentRepo AggregatorEnrollmentRepository
	contentRepo    ContentCatalog
	progressRepo   ProgressLister
	transactor     Transactor
	logger         *zap.Logger
}

// NewEnrollmentAggregator creates a new enrollment aggregator
func NewEnrollmentAggregator(
	enrollmentRepo AggregatorEnrollmentRepository,
	contentRepo ContentCatalog,
	progressRepo ProgressLister,
	transactor Transactor,
	logger *zap.Logger,
) *enrollmentAggregator {
	return &enrollmentAggregator{
		enrollmentRepo: enrollmentRepo,
		contentRepo:    contentRepo,
		progressRepo:   progressRepo,
		transactor:     transactor,
		logger:         logger,
	}
}

// Recompute derives the completion percentage of an enrollment from a full scan and stores it.
// The enrollment row stays locked until the transaction ends, so concurrent recomputes of one enrollment serialize.
// When called inside an open transaction, the work joins it.
func (a *enrollmentAggregator) Recompute(ctx context.Context, enrollmentID int) (float64, error) {
	var percentage float64

	err := a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		enrollment, err := a.enrollmentRepo.GetByIDForUpdate(ctx, enrollmentID)
		if err != nil {
			return err
		}

		contents, err := a.contentRepo.GetByCourseID(ctx, enrollment.CourseID)
		if err != nil {
			return err
		}

		records, err := a.progressRepo.GetByEnrollmentID(ctx, enrollmentID)
		if err != nil {
			return err
		}

		percentage = CompletionPercentage(contents, records)
		return a.enrollmentRepo.UpdateProgressPercentage(ctx, enrollmentID, percentage)
	})
	if err != nil {
		return 0, err
	}

	a.logger.Debug("enrollment progress recomputed",
		zap.Int("enrollment_id", enrollmentID),
		zap.Float64("percentage", percentage),
	)
	return percentage, nil
}

// CompletionPercentage returns the share of contents whose progress reached 100%, rounded to two decimals.
// Partially done contents earn no credit, progress rows for contents outside the list are ignored,
// and an empty course yields 0.
func CompletionPercentage(contents []models.Content, records []models.Progress) float64 {
	if len(contents) == 0 {
		return 0
	}

	inCourse := make(map[int]struct{}, len(contents))
	for _, content := range contents {
		inCourse[content.ID] = struct{}{}
	}

	completed := 0
	for _, record := range records {
		if _, ok := inCourse[record.ContentID]; ok && models.IsCompleted(record.PercentComplete) {
			completed++
		}
	}

	return math.Round(float64(completed)*100*100/float64(len(contents))) / 100
}
