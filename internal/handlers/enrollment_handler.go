package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// EnrollmentService is the interface that wraps methods for enrollment operations
type EnrollmentService interface {
	// Method Enroll creates an active enrollment of the student in the course.
	//
	// If course not found, an error wrapping models.ErrNotFound will be returned together with nil.
	// If the student is already enrolled, an error wrapping models.ErrConflict will be returned together with nil.
	Enroll(ctx context.Context, studentID int, req *models.EnrollRequest) (*models.Enrollment, error)
	// Method ListStudentEnrollments returns the enrollments of one student.
	ListStudentEnrollments(ctx context.Context, studentID int) ([]models.EnrollmentListItem, error)
	// Method ListAllEnrollments returns every enrollment.
	ListAllEnrollments(ctx context.Context) ([]models.EnrollmentListItem, error)
	// Method UpdateStatus changes the status of an enrollment.
	//
	// If the status is unknown, an error wrapping models.ErrValidation will be returned together with nil.
	// If enrollment not found, an error wrapping models.ErrNotFound will be returned together with nil.
	UpdateStatus(ctx context.Context, id int, req *models.UpdateEnrollmentStatusRequest) (*models.Enrollment, error)
}

// EnrollmentHandler handles student enrollment HTTP requests
type EnrollmentHandler struct {
	handlers.BaseHandler
	enrollmentService EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       handlers.BaseHandler{Logger: logger},
		enrollmentService: enrollmentService,
	}
}

// RegisterRoutes registers enrollment routes behind the student middleware
func (h *EnrollmentHandler) RegisterRoutes(r chi.Router, studentMiddleware func(http.Handler) http.Handler) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Use(studentMiddleware)
		r.Post("/", h.Enroll)
		r.Get("/me", h.ListMyEnrollments)
	})
}

// Enroll handles POST /enrollments
// @Summary Enroll in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body models.EnrollRequest true "Course to enroll in"
// @Success 201 {object} models.Enrollment "Created enrollment"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Already enrolled"
// @Security ApiKeyAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	studentID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	var req models.EnrollRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enrollment, err := h.enrollmentService.Enroll(r.Context(), studentID, &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "enroll")
		return
	}
	h.RespondJSON(w, http.StatusCreated, enrollment)
}

// ListMyEnrollments handles GET /enrollments/me
// @Summary List the caller's enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {array} models.EnrollmentListItem "Enrollments"
// @Security ApiKeyAuth
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	studentID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.ListStudentEnrollments(r.Context(), studentID)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list enrollments")
		return
	}
	h.RespondJSON(w, http.StatusOK, enrollments)
}
