package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lmsplatform/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProgressFixture(store *memStore) (*progressService, *serialTransactor) {
	tx := &serialTransactor{store: store}
	aggregator := NewEnrollmentAggregator(memEnrollments{store}, memContents{store}, memProgress{store}, tx, zap.NewNop())
	svc := NewProgressService(memCourses{store}, memEnrollments{store}, memContents{store}, memProgress{store}, aggregator, tx, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, tx
}

func intPtr(v int) *int { return &v }

func TestCompletionPercentage(t *testing.T) {
	contents := func(ids ...int) []models.Content {
		result := make([]models.Content, 0, len(ids))
		for _, id := range ids {
			result = append(result, models.Content{ID: id})
		}
		return result
	}

	tests := []struct {
		name     string
		contents []models.Content
		records  []models.Progress
		expected float64
	}{
		{
			name:     "no content",
			contents: nil,
			records:  []models.Progress{{ContentID: 1, PercentComplete: 100}},
			expected: 0,
		},
		{
			name:     "two of four complete",
			contents: contents(1, 2, 3, 4),
			records: []models.Progress{
				{ContentID: 1, PercentComplete: 100},
				{ContentID: 2, PercentComplete: 100},
				{ContentID: 3, PercentComplete: 50},
			},
			expected: 50,
		},
		{
			name:     "two of five complete",
			contents: contents(1, 2, 3, 4, 5),
			records: []models.Progress{
				{ContentID: 1, PercentComplete: 100},
				{ContentID: 4, PercentComplete: 100},
			},
			expected: 40,
		},
		{
			name:     "rounded to two decimals",
			contents: contents(1, 2, 3),
			records: []models.Progress{
				{ContentID: 1, PercentComplete: 100},
				{ContentID: 2, PercentComplete: 100},
			},
			expected: 66.67,
		},
		{
			name:     "partial progress earns nothing",
			contents: contents(1, 2),
			records: []models.Progress{
				{ContentID: 1, PercentComplete: 99},
				{ContentID: 2, PercentComplete: 1},
			},
			expected: 0,
		},
		{
			name:     "progress outside the course is ignored",
			contents: contents(1, 2),
			records: []models.Progress{
				{ContentID: 1, PercentComplete: 100},
				{ContentID: 77, PercentComplete: 100},
			},
			expected: 50,
		},
		{
			name:     "all complete",
			contents: contents(1),
			records:  []models.Progress{{ContentID: 1, PercentComplete: 100}},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompletionPercentage(tt.contents, tt.records))
		})
	}
}

func TestEnrollmentAggregator_Recompute(t *testing.T) {
	t.Run("stores the derived percentage", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11, 12, 13, 14)
		store.addEnrollment(5, 100, 1)
		store.progress[[2]int{5, 11}] = &models.Progress{EnrollmentID: 5, ContentID: 11, PercentComplete: 100}
		store.progress[[2]int{5, 12}] = &models.Progress{EnrollmentID: 5, ContentID: 12, PercentComplete: 100}
		store.progress[[2]int{5, 13}] = &models.Progress{EnrollmentID: 5, ContentID: 13, PercentComplete: 50}

		tx := &serialTransactor{}
		aggregator := NewEnrollmentAggregator(memEnrollments{store}, memContents{store}, memProgress{store}, tx, zap.NewNop())

		percentage, err := aggregator.Recompute(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, 50.0, percentage)
		assert.Equal(t, 50.0, store.enrollments[5].ProgressPercentage)
		assert.Equal(t, 1, tx.calls)
	})

	t.Run("idempotent", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11, 12, 13, 14, 15)
		store.addEnrollment(5, 100, 1)
		store.progress[[2]int{5, 11}] = &models.Progress{EnrollmentID: 5, ContentID: 11, PercentComplete: 100}
		store.progress[[2]int{5, 12}] = &models.Progress{EnrollmentID: 5, ContentID: 12, PercentComplete: 100}

		aggregator := NewEnrollmentAggregator(memEnrollments{store}, memContents{store}, memProgress{store}, &serialTransactor{}, zap.NewNop())

		first, err := aggregator.Recompute(context.Background(), 5)
		require.NoError(t, err)
		second, err := aggregator.Recompute(context.Background(), 5)
		require.NoError(t, err)

		assert.Equal(t, 40.0, first)
		assert.Equal(t, first, second)
		assert.Equal(t, 40.0, store.enrollments[5].ProgressPercentage)
	})

	t.Run("course without content", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1)
		store.addEnrollment(5, 100, 1)
		store.enrollments[5].ProgressPercentage = 75

		aggregator := NewEnrollmentAggregator(memEnrollments{store}, memContents{store}, memProgress{store}, &serialTransactor{}, zap.NewNop())

		percentage, err := aggregator.Recompute(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, 0.0, percentage)
		assert.Equal(t, 0.0, store.enrollments[5].ProgressPercentage)
	})

	t.Run("missing enrollment", func(t *testing.T) {
		store := newMemStore()
		aggregator := NewEnrollmentAggregator(memEnrollments{store}, memContents{store}, memProgress{store}, &serialTransactor{}, zap.NewNop())

		_, err := aggregator.Recompute(context.Background(), 404)
		assert.True(t, errors.Is(err, models.ErrNotFound))
		assert.Equal(t, 0, store.updates)
	})
}

func TestProgressService_RecordProgress(t *testing.T) {
	t.Run("completion follows the threshold", func(t *testing.T) {
		for percent := 0; percent <= 100; percent++ {
			store := newMemStore()
			store.addCourse(1, 11)
			store.addEnrollment(5, 100, 1)
			svc, _ := newProgressFixture(store)

			record, err := svc.RecordProgress(context.Background(), 5, 11, percent)
			require.NoError(t, err)
			assert.Equal(t, percent, record.PercentComplete)
			assert.Equal(t, percent == 100, record.Completed, "percent %d", percent)
		}
	})

	t.Run("one row per enrollment and content", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11, 12)
		store.addEnrollment(5, 100, 1)
		svc, _ := newProgressFixture(store)

		first, err := svc.RecordProgress(context.Background(), 5, 11, 30)
		require.NoError(t, err)
		second, err := svc.RecordProgress(context.Background(), 5, 11, 100)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, store.progressRows(5))
		assert.Equal(t, 50.0, store.enrollments[5].ProgressPercentage)
	})

	t.Run("lowering progress uncompletes the content", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11, 12)
		store.addEnrollment(5, 100, 1)
		svc, _ := newProgressFixture(store)

		_, err := svc.RecordProgress(context.Background(), 5, 11, 100)
		require.NoError(t, err)
		assert.Equal(t, 50.0, store.enrollments[5].ProgressPercentage)

		record, err := svc.RecordProgress(context.Background(), 5, 11, 60)
		require.NoError(t, err)
		assert.False(t, record.Completed)
		assert.Equal(t, 0.0, store.enrollments[5].ProgressPercentage)
	})

	t.Run("stamps last access time", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11)
		store.addEnrollment(5, 100, 1)
		svc, _ := newProgressFixture(store)

		record, err := svc.RecordProgress(context.Background(), 5, 11, 10)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), record.LastAccessedAt)
	})

	t.Run("recompute joins the recording transaction", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11)
		store.addEnrollment(5, 100, 1)
		svc, tx := newProgressFixture(store)

		_, err := svc.RecordProgress(context.Background(), 5, 11, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, tx.calls)
	})

	errorTests := []struct {
		name         string
		enrollmentID int
		contentID    int
		percent      int
		expected     error
	}{
		{name: "negative percent", enrollmentID: 5, contentID: 11, percent: -1, expected: models.ErrValidation},
		{name: "percent above 100", enrollmentID: 5, contentID: 11, percent: 101, expected: models.ErrValidation},
		{name: "unknown enrollment", enrollmentID: 6, contentID: 11, percent: 10, expected: models.ErrNotFound},
		{name: "unknown content", enrollmentID: 5, contentID: 99, percent: 10, expected: models.ErrNotFound},
		{name: "content from another course", enrollmentID: 5, contentID: 21, percent: 10, expected: models.ErrNotFound},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.addCourse(1, 11)
			store.addCourse(2, 21)
			store.addEnrollment(5, 100, 1)
			svc, _ := newProgressFixture(store)

			record, err := svc.RecordProgress(context.Background(), tt.enrollmentID, tt.contentID, tt.percent)
			assert.Nil(t, record)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
			assert.Equal(t, 0, store.progressRows(tt.enrollmentID))
			assert.Equal(t, 0, store.updates)
		})
	}

	t.Run("save failure skips recompute", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11)
		store.addEnrollment(5, 100, 1)
		store.saveErr = errors.New("connection reset")
		svc, _ := newProgressFixture(store)

		_, err := svc.RecordProgress(context.Background(), 5, 11, 100)
		assert.EqualError(t, err, "connection reset")
		assert.Equal(t, 0, store.updates)
	})

	t.Run("recompute failure discards the saved row", func(t *testing.T) {
		store := newMemStore()
		store.addCourse(1, 11, 12)
		store.addEnrollment(5, 100, 1)
		svc, tx := newProgressFixture(store)

		_, err := svc.RecordProgress(context.Background(), 5, 11, 30)
		require.NoError(t, err)

		store.updateErr = errors.New("lock wait timeout exceeded")
		record, err := svc.RecordProgress(context.Background(), 5, 11, 100)
		assert.Nil(t, record)
		assert.EqualError(t, err, "lock wait timeout exceeded")
		assert.Equal(t, 1, tx.rollbacks)

		kept, err := memProgress{store}.GetByEnrollmentAndContent(context.Background(), 5, 11)
		require.NoError(t, err)
		assert.Equal(t, 30, kept.PercentComplete)
		assert.False(t, kept.Completed)
		assert.Equal(t, 0.0, store.enrollments[5].ProgressPercentage)
	})
}

func TestProgressService_RecordProgress_Concurrent(t *testing.T) {
	store := newMemStore()
	contentIDs := []int{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	store.addCourse(1, contentIDs...)
	store.addEnrollment(5, 100, 1)
	svc, _ := newProgressFixture(store)

	var wg sync.WaitGroup
	for _, contentID := range contentIDs {
		wg.Add(1)
		go func(contentID int) {
			defer wg.Done()
			_, err := svc.RecordProgress(context.Background(), 5, contentID, 100)
			assert.NoError(t, err)
		}(contentID)
	}
	wg.Wait()

	assert.Equal(t, 100.0, store.enrollments[5].ProgressPercentage)
	assert.Equal(t, len(contentIDs), store.progressRows(5))
}

func TestProgressService_UpdateProgress(t *testing.T) {
	tests := []struct {
		name      string
		studentID int
		req       *models.UpdateProgressRequest
		expected  error
	}{
		{
			name:      "success",
			studentID: 100,
			req:       &models.UpdateProgressRequest{CourseID: 1, ContentID: 11, PercentComplete: intPtr(100)},
		},
		{
			name:      "zero percent is accepted",
			studentID: 100,
			req:       &models.UpdateProgressRequest{CourseID: 1, ContentID: 11, PercentComplete: intPtr(0)},
		},
		{
			name:      "missing percent",
			studentID: 100,
			req:       &models.UpdateProgressRequest{CourseID: 1, ContentID: 11},
			expected:  models.ErrValidation,
		},
		{
			name:      "percent out of range",
			studentID: 100,
			req:       &models.UpdateProgressRequest{CourseID: 1, ContentID: 11, PercentComplete: intPtr(150)},
			expected:  models.ErrValidation,
		},
		{
			name:      "unknown course",
			studentID: 100,
			req:       &models.UpdateProgressRequest{CourseID: 9, ContentID: 11, PercentComplete: intPtr(10)},
			expected:  models.ErrNotFound,
		},
		{
			name:      "not enrolled",
			studentID: 200,
			req:       &models.UpdateProgressRequest{CourseID: 1, ContentID: 11, PercentComplete: intPtr(10)},
			expected:  models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.addCourse(1, 11, 12)
			store.addEnrollment(5, 100, 1)
			svc, _ := newProgressFixture(store)

			record, err := svc.UpdateProgress(context.Background(), tt.studentID, tt.req)
			if tt.expected != nil {
				assert.True(t, errors.Is(err, tt.expected), "got %v", err)
				assert.Nil(t, record)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5, record.EnrollmentID)
			assert.Equal(t, *tt.req.PercentComplete, record.PercentComplete)
		})
	}
}

func TestProgressService_GetCourseProgress(t *testing.T) {
	store := newMemStore()
	store.addCourse(1, 11, 12)
	store.addEnrollment(5, 100, 1)
	svc, _ := newProgressFixture(store)

	_, err := svc.RecordProgress(context.Background(), 5, 11, 40)
	require.NoError(t, err)

	records, err := svc.GetCourseProgress(context.Background(), 100, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 40, records[0].PercentComplete)

	_, err = svc.GetCourseProgress(context.Background(), 100, 2)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
