package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/lmsplatform/backend/internal/models"
	"go.uber.org/zap"
)

// ReminderTargetRepository is the interface that wraps the active enrollment listing
type ReminderTargetRepository interface {
	// Method GetReminderTargets retrieves every ACTIVE enrollment with student and course details.
	//
	// If some error occurs, the error will be returned together with "nil" value.
	GetReminderTargets(ctx context.Context) ([]models.ReminderTarget, error)
}

// ReminderClaimer deduplicates reminders per enrollment and day
type ReminderClaimer interface {
	// Method Claim reserves the reminder of an enrollment for a day.
	//
	// Returns "false" when another run already claimed it.
	Claim(ctx context.Context, enrollmentID int, day string) (bool, error)
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DispatchResult summarizes one reminder run
type DispatchResult struct {
	Targets  int
	Enqueued int
	Skipped  int
	Failed   int
}

// reminderService implements ReminderService
type reminderService struct {
	enrollmentRepo ReminderTargetRepository
	claimer        ReminderClaimer
	enqueuer       TaskEnqueuer
	location       *time.Location
	logger         *zap.Logger
	now            func() time.Time
}

// NewReminderService creates a new reminder service. Days are counted in location.
func NewReminderService(enrollmentRepo ReminderTargetRepository, claimer ReminderClaimer, enqueuer TaskEnqueuer, location *time.Location, logger *zap.Logger) *reminderService {
	if location == nil {
		location = time.UTC
	}
	return &reminderService{
		enrollmentRepo: enrollmentRepo,
		claimer:        claimer,
		enqueuer:       enqueuer,
		location:       location,
		logger:         logger,
		now:            time.Now,
	}
}

// NewReminderTask builds the queue task of one enrollment reminder
func NewReminderTask(target models.ReminderTarget) (*asynq.Task, error) {
	payload, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminder payload: %w", err)
	}
	return asynq.NewTask(models.TypeEnrollmentReminder, payload, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}

// DispatchDailyReminders enqueues one reminder per active enrollment for today.
// Enrollments already claimed today are skipped; a failure on one enrollment does not stop the run.
func (s *reminderService) DispatchDailyReminders(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult

	targets, err := s.enrollmentRepo.GetReminderTargets(ctx)
	if err != nil {
		return result, err
	}
	result.Targets = len(targets)

	day := s.now().In(s.location).Format("2006-01-02")
	for _, target := range targets {
		claimed, err := s.claimer.Claim(ctx, target.EnrollmentID, day)
		if err != nil {
			s.logger.Warn("failed to claim reminder", zap.Error(err), zap.Int("enrollment_id", target.EnrollmentID))
			result.Failed++
			continue
		}
		if !claimed {
			result.Skipped++
			continue
		}

		task, err := NewReminderTask(target)
		if err != nil {
			result.Failed++
			continue
		}
		if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
			s.logger.Error("failed to enqueue reminder", zap.Error(err), zap.Int("enrollment_id", target.EnrollmentID))
			result.Failed++
			continue
		}
		result.Enqueued++
	}

	s.logger.Info("daily reminders dispatched",
		zap.String("day", day),
		zap.Int("targets", result.Targets),
		zap.Int("enqueued", result.Enqueued),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
