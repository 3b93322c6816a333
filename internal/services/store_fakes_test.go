package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lmsplatform/backend/internal/models"
)

// memStore is an in-memory stand-in for the relational tables used by progress tests
type memStore struct {
	mu          sync.Mutex
	courses     map[int]*models.CourseListItem
	contents    map[int]*models.Content
	enrollments map[int]*models.Enrollment
	progress    map[[2]int]*models.Progress
	nextID      int
	saveErr     error
	updateErr   error
	updates     int
}

func newMemStore() *memStore {
	return &memStore{
		courses:     map[int]*models.CourseListItem{},
		contents:    map[int]*models.Content{},
		enrollments: map[int]*models.Enrollment{},
		progress:    map[[2]int]*models.Progress{},
		nextID:      1000,
	}
}

func (s *memStore) addCourse(id int, contentIDs ...int) {
	s.courses[id] = &models.CourseListItem{Course: models.Course{ID: id, Title: fmt.Sprintf("course %d", id)}}
	for i, contentID := range contentIDs {
		s.contents[contentID] = &models.Content{ID: contentID, CourseID: id, OrderIndex: i}
	}
}

func (s *memStore) addEnrollment(id, studentID, courseID int) {
	s.enrollments[id] = &models.Enrollment{ID: id, StudentID: studentID, CourseID: courseID, Status: models.EnrollmentStatusActive}
}

func (s *memStore) progressRows(enrollmentID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key := range s.progress {
		if key[0] == enrollmentID {
			count++
		}
	}
	return count
}

type memEnrollments struct{ *memStore }

func (r memEnrollments) GetByIDForUpdate(ctx context.Context, id int) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrollment, ok := r.enrollments[id]
	if !ok {
		return nil, fmt.Errorf("enrollment %w", models.ErrNotFound)
	}
	copied := *enrollment
	return &copied, nil
}

func (r memEnrollments) GetByStudentAndCourse(ctx context.Context, studentID, courseID int) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, enrollment := range r.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			copied := *enrollment
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("enrollment %w", models.ErrNotFound)
}

func (r memEnrollments) UpdateProgressPercentage(ctx context.Context, id int, percentage float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	enrollment, ok := r.enrollments[id]
	if !ok {
		return fmt.Errorf("enrollment %w", models.ErrNotFound)
	}
	enrollment.ProgressPercentage = percentage
	r.updates++
	return nil
}

type memContents struct{ *memStore }

func (r memContents) GetByID(ctx context.Context, id int) (*models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.contents[id]
	if !ok {
		return nil, fmt.Errorf("content %w", models.ErrNotFound)
	}
	copied := *content
	return &copied, nil
}

func (r memContents) GetByCourseID(ctx context.Context, courseID int) ([]models.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contents := []models.Content{}
	for _, content := range r.contents {
		if content.CourseID == courseID {
			contents = append(contents, *content)
		}
	}
	sort.Slice(contents, func(i, j int) bool { return contents[i].ID < contents[j].ID })
	return contents, nil
}

type memCourses struct{ *memStore }

func (r memCourses) GetByID(ctx context.Context, id int) (*models.CourseListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	course, ok := r.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %w", models.ErrNotFound)
	}
	copied := *course
	return &copied, nil
}

type memProgress struct{ *memStore }

func (r memProgress) GetByEnrollmentAndContent(ctx context.Context, enrollmentID, contentID int) (*models.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.progress[[2]int{enrollmentID, contentID}]
	if !ok {
		return nil, fmt.Errorf("progress %w", models.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (r memProgress) GetByEnrollmentID(ctx context.Context, enrollmentID int) ([]models.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := []models.Progress{}
	for key, record := range r.progress {
		if key[0] == enrollmentID {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (r memProgress) Save(ctx context.Context, progress *models.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	key := [2]int{progress.EnrollmentID, progress.ContentID}
	if existing, ok := r.progress[key]; ok {
		progress.ID = existing.ID
	} else {
		r.nextID++
		progress.ID = r.nextID
	}
	copied := *progress
	r.progress[key] = &copied
	return nil
}

// serialTransactor runs units of work one at a time, which is what the enrollment row lock guarantees.
// When store is set, a failed unit of work leaves its enrollments and progress rows as they were.
type serialTransactor struct {
	mu        sync.Mutex
	store     *memStore
	calls     int
	rollbacks int
}

func (t *serialTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(serialTxKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++

	var restore func()
	if t.store != nil {
		restore = t.store.snapshot()
	}
	err := fn(context.WithValue(ctx, serialTxKey{}, true))
	if err != nil {
		t.rollbacks++
		if restore != nil {
			restore()
		}
	}
	return err
}

// snapshot copies the writable tables and returns a func that puts the copy back
func (s *memStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollments := make(map[int]*models.Enrollment, len(s.enrollments))
	for id, enrollment := range s.enrollments {
		copied := *enrollment
		enrollments[id] = &copied
	}
	progress := make(map[[2]int]*models.Progress, len(s.progress))
	for key, record := range s.progress {
		copied := *record
		progress[key] = &copied
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.enrollments = enrollments
		s.progress = progress
	}
}

type serialTxKey struct{}
