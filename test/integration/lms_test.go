//go:build integration

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lmsplatform/backend/internal/app"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/auth/service"
	"github.com/lmsplatform/backend/libs/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testLogger *zap.Logger
	testTokens *service.TokenGenerator
)

// cleanupTestData removes all rows, children first
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range []string{"progress", "enrollments", "contents", "courses", "users"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clear %s", table)
	}
}

// setupTestRouter mounts the same routes cmd/api serves, without the global middleware
func setupTestRouter(db *sql.DB, cfg *config.Config, logger *zap.Logger) chi.Router {
	testTokens = service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	r := chi.NewRouter()
	app.Mount(r, db, cfg, logger)
	return r
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := cfg.DSN()
	if cfg.Database.Host == "" {
		// Default test database connection
		dsn = "root:password@tcp(localhost:3306)/lms_test?parseTime=true&charset=utf8mb4&clientFoundRows=true"
	}

	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}
	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}

	if err = migrateTestSchema(testDB); err != nil {
		panic(fmt.Sprintf("Failed to migrate test database: %v", err))
	}

	testRouter = setupTestRouter(testDB, cfg, testLogger)

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// migrateTestSchema applies the real migrations to the test database
func migrateTestSchema(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: "lms_schema_migrations"})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "mysql", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account through the API and returns its id and access token
func registerAndLogin(t *testing.T, name, email, role string) (int, string) {
	t.Helper()
	w := doJSON(t, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		FullName: name,
		Email:    email,
		Password: "password123",
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user models.UserResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&user))

	w = doJSON(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login models.LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&login))
	return user.ID, login.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestIntegration_ProgressFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	_, teacherToken := registerAndLogin(t, "Tess Teacher", "teacher@example.com", "teacher")
	studentID, studentToken := registerAndLogin(t, "Sam Student", "student@example.com", "student")

	w := doJSON(t, http.MethodPost, "/api/v1/courses", teacherToken, models.CreateCourseRequest{Title: "Go Basics", Description: "Intro"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)

	w = doJSON(t, http.MethodPost, "/api/v1/courses", teacherToken, models.CreateCourseRequest{Title: "Go Basics"})
	assert.Equal(t, http.StatusConflict, w.Code)

	contentIDs := make([]int, 0, 2)
	for i, title := range []string{"Lesson 1", "Lesson 2"} {
		w = doJSON(t, http.MethodPost, "/api/v1/contents", teacherToken, models.AddContentRequest{
			CourseID:   course.ID,
			Title:      title,
			FileURL:    fmt.Sprintf("https://cdn.example.com/lesson-%d.pdf", i+1),
			OrderIndex: i,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		contentIDs = append(contentIDs, decode[models.Content](t, w).ID)
	}

	// Progress before enrolling has no enrollment to attach to
	percent := 100
	w = doJSON(t, http.MethodPost, "/api/v1/progress/update", studentToken, models.UpdateProgressRequest{
		CourseID: course.ID, ContentID: contentIDs[0], PercentComplete: &percent,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "enrollment not found")

	w = doJSON(t, http.MethodPost, "/api/v1/enrollments", studentToken, models.EnrollRequest{CourseID: course.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	enrollment := decode[models.Enrollment](t, w)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, studentID, enrollment.StudentID)

	w = doJSON(t, http.MethodPost, "/api/v1/enrollments", studentToken, models.EnrollRequest{CourseID: course.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	steps := []struct {
		contentID int
		percent   int
		expected  float64
	}{
		{contentIDs[0], 100, 50},
		{contentIDs[1], 40, 50},
		{contentIDs[1], 100, 100},
		{contentIDs[0], 60, 50},
	}
	for _, step := range steps {
		p := step.percent
		w = doJSON(t, http.MethodPost, "/api/v1/progress/update", studentToken, models.UpdateProgressRequest{
			CourseID: course.ID, ContentID: step.contentID, PercentComplete: &p,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		record := decode[models.Progress](t, w)
		assert.Equal(t, step.percent >= 100, record.Completed)

		var stored float64
		require.NoError(t, testDB.QueryRow("SELECT progress_percentage FROM enrollments WHERE id = ?", enrollment.ID).Scan(&stored))
		assert.InDelta(t, step.expected, stored, 0.001)
	}

	// One row per content regardless of how many updates were recorded
	w = doJSON(t, http.MethodGet, fmt.Sprintf("/api/v1/progress?courseId=%d", course.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Progress](t, w), 2)

	invalid := 101
	w = doJSON(t, http.MethodPost, "/api/v1/progress/update", studentToken, models.UpdateProgressRequest{
		CourseID: course.ID, ContentID: contentIDs[0], PercentComplete: &invalid,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, http.MethodGet, "/api/v1/enrollments/me", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]models.EnrollmentListItem](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, "Go Basics", mine[0].CourseTitle)
	assert.InDelta(t, 50, mine[0].ProgressPercentage, 0.001)
}

func TestIntegration_AdminRecomputeAfterContentChange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	cleanupTestData(t, testDB)
	defer cleanupTestData(t, testDB)

	_, teacherToken := registerAndLogin(t, "Tess Teacher", "teacher@example.com", "teacher")
	_, studentToken := registerAndLogin(t, "Sam Student", "student@example.com", "student")
	adminID, _ := registerAndLogin(t, "Ada Admin", "admin@example.com", "student")
	_, err := testDB.Exec("UPDATE users SET role = ? WHERE id = ?", models.RoleAdmin, adminID)
	require.NoError(t, err)
	adminToken, err := testTokens.GenerateAccessToken(adminID, int(models.RoleAdmin))
	require.NoError(t, err)

	w := doJSON(t, http.MethodPost, "/api/v1/courses", teacherToken, models.CreateCourseRequest{Title: "SQL"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)

	var contentIDs []int
	for i := 0; i < 2; i++ {
		w = doJSON(t, http.MethodPost, "/api/v1/contents", teacherToken, models.AddContentRequest{
			CourseID:   course.ID,
			Title:      fmt.Sprintf("Part %d", i+1),
			FileURL:    fmt.Sprintf("https://cdn.example.com/part-%d.mp4", i+1),
			OrderIndex: i,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		contentIDs = append(contentIDs, decode[models.Content](t, w).ID)
	}

	w = doJSON(t, http.MethodPost, "/api/v1/enrollments", studentToken, models.EnrollRequest{CourseID: course.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	enrollment := decode[models.Enrollment](t, w)

	p := 100
	w = doJSON(t, http.MethodPost, "/api/v1/progress/update", studentToken, models.UpdateProgressRequest{
		CourseID: course.ID, ContentID: contentIDs[0], PercentComplete: &p,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Removing the unfinished content leaves the stored value stale until a recompute
	w = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/v1/contents/%d", contentIDs[1]), teacherToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/enrollments/%d/recompute", enrollment.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.RecomputeResponse](t, w)
	assert.InDelta(t, 100, resp.ProgressPercentage, 0.001)

	w = doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/enrollments/%d/recompute", enrollment.ID), studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, http.MethodPatch, fmt.Sprintf("/api/v1/admin/enrollments/%d/status", enrollment.ID), adminToken,
		models.UpdateEnrollmentStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.EnrollmentStatusCompleted, decode[models.Enrollment](t, w).Status)

	// Deleting the course cascades to its enrollments
	w = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/courses/%d", course.ID), adminToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	var remaining int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM enrollments WHERE course_id = ?", course.ID).Scan(&remaining))
	assert.Zero(t, remaining)
}
