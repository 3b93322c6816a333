package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockReminderTargetRepository is a mock implementation of ReminderTargetRepository
type mockReminderTargetRepository struct {
	targets []models.ReminderTarget
	err     error
}

func (m *mockReminderTargetRepository) GetReminderTargets(ctx context.Context) ([]models.ReminderTarget, error) {
	return m.targets, m.err
}

// mockReminderClaimer remembers claimed keys like the Redis SETNX store
type mockReminderClaimer struct {
	claimed map[string]bool
	err     error
	days    []string
}

func (m *mockReminderClaimer) Claim(ctx context.Context, enrollmentID int, day string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.days = append(m.days, day)
	key := fmt.Sprintf("%s/%d", day, enrollmentID)
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

// mockTaskEnqueuer is a mock implementation of TaskEnqueuer
type mockTaskEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockTaskEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestReminderService_DispatchDailyReminders(t *testing.T) {
	targets := []models.ReminderTarget{
		{EnrollmentID: 1, StudentName: "Ada", StudentEmail: "ada@example.com", CourseTitle: "Go Basics", ProgressPercentage: 50},
		{EnrollmentID: 2, StudentName: "Alan", StudentEmail: "alan@example.com", CourseTitle: "Go Basics"},
	}

	t.Run("enqueues one task per enrollment per day", func(t *testing.T) {
		claimer := &mockReminderClaimer{claimed: map[string]bool{}}
		enqueuer := &mockTaskEnqueuer{}
		svc := NewReminderService(&mockReminderTargetRepository{targets: targets}, claimer, enqueuer, time.UTC, zap.NewNop())
		svc.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }

		result, err := svc.DispatchDailyReminders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DispatchResult{Targets: 2, Enqueued: 2}, result)
		require.Len(t, enqueuer.tasks, 2)
		assert.Equal(t, models.TypeEnrollmentReminder, enqueuer.tasks[0].Type())

		var payload models.ReminderTarget
		require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &payload))
		assert.Equal(t, targets[0], payload)

		result, err = svc.DispatchDailyReminders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DispatchResult{Targets: 2, Skipped: 2}, result)
		assert.Len(t, enqueuer.tasks, 2)
	})

	t.Run("day follows the configured timezone", func(t *testing.T) {
		location := time.FixedZone("JST", 9*60*60)
		claimer := &mockReminderClaimer{claimed: map[string]bool{}}
		svc := NewReminderService(&mockReminderTargetRepository{targets: targets[:1]}, claimer, &mockTaskEnqueuer{}, location, zap.NewNop())
		svc.now = func() time.Time { return time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC) }

		_, err := svc.DispatchDailyReminders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"2026-10-20"}, claimer.days)
	})

	t.Run("enqueue failures are counted", func(t *testing.T) {
		claimer := &mockReminderClaimer{claimed: map[string]bool{}}
		enqueuer := &mockTaskEnqueuer{err: errors.New("redis down")}
		svc := NewReminderService(&mockReminderTargetRepository{targets: targets}, claimer, enqueuer, nil, zap.NewNop())

		result, err := svc.DispatchDailyReminders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, result.Failed)
	})

	t.Run("claim failures are counted", func(t *testing.T) {
		claimer := &mockReminderClaimer{err: errors.New("redis down")}
		enqueuer := &mockTaskEnqueuer{}
		svc := NewReminderService(&mockReminderTargetRepository{targets: targets}, claimer, enqueuer, nil, zap.NewNop())

		result, err := svc.DispatchDailyReminders(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, result.Failed)
		assert.Empty(t, enqueuer.tasks)
	})

	t.Run("listing failure", func(t *testing.T) {
		svc := NewReminderService(&mockReminderTargetRepository{err: errors.New("database error")}, &mockReminderClaimer{}, &mockTaskEnqueuer{}, nil, zap.NewNop())

		_, err := svc.DispatchDailyReminders(context.Background())
		assert.Error(t, err)
	})
}
