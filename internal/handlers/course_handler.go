package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course operations
type CourseService interface {
	// Method CreateCourse creates a course taught by instructorID.
	//
	// If the instructor already has a course with the title, an error wrapping models.ErrConflict will be returned together with nil.
	CreateCourse(ctx context.Context, instructorID int, req *models.CreateCourseRequest) (*models.Course, error)
	// Method ListCourses returns every course.
	ListCourses(ctx context.Context) ([]models.CourseListItem, error)
	// Method ListInstructorCourses returns the courses taught by instructorID.
	ListInstructorCourses(ctx context.Context, instructorID int) ([]models.CourseListItem, error)
	// Method GetCourse returns a course with its contents.
	//
	// If course not found, an error wrapping models.ErrNotFound will be returned together with nil.
	GetCourse(ctx context.Context, id int) (*models.CourseDetail, error)
	// Method DeleteCourse removes a course and the files of its contents.
	//
	// If course not found, an error wrapping models.ErrNotFound will be returned.
	DeleteCourse(ctx context.Context, id int) error
}

// CourseHandler handles course-related HTTP requests
type CourseHandler struct {
	handlers.BaseHandler
	courseService CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   handlers.BaseHandler{Logger: logger},
		courseService: courseService,
	}
}

// RegisterRoutes registers course routes. Browsing is public, writing requires the teacher middleware.
func (h *CourseHandler) RegisterRoutes(r chi.Router, teacherMiddleware func(http.Handler) http.Handler) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Get("/{id}", h.GetCourse)
		r.Group(func(r chi.Router) {
			r.Use(teacherMiddleware)
			r.Post("/", h.CreateCourse)
			r.Get("/mine", h.ListMyCourses)
		})
	})
}

// ListCourses handles GET /courses
// @Summary List courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.CourseListItem "Courses"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses [get]
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list courses")
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /courses/{id}
// @Summary Get course
// @Description Course with instructor details and ordered contents
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseDetail "Course"
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), id)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get course")
		return
	}
	h.RespondJSON(w, http.StatusOK, course)
}

// CreateCourse handles POST /courses
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course "Created course"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Course already exists"
// @Security ApiKeyAuth
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	var req models.CreateCourseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), instructorID, &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "create course")
		return
	}
	h.RespondJSON(w, http.StatusCreated, course)
}

// ListMyCourses handles GET /courses/mine
// @Summary List the caller's courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.CourseListItem "Courses"
// @Security ApiKeyAuth
// @Router /courses/mine [get]
func (h *CourseHandler) ListMyCourses(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	courses, err := h.courseService.ListInstructorCourses(r.Context(), instructorID)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list instructor courses")
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}
