package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for learner progress
type ProgressService interface {
	// Method UpdateProgress records the student's progress on one content item and recomputes the enrollment.
	//
	// If the percentage is out of range, an error wrapping models.ErrValidation will be returned together with nil.
	// If course or content not found, an error wrapping models.ErrNotFound will be returned together with nil.
	// If the student is not enrolled, an error wrapping models.ErrNotFound will be returned together with nil.
	UpdateProgress(ctx context.Context, studentID int, req *models.UpdateProgressRequest) (*models.Progress, error)
	// Method GetCourseProgress returns the student's progress rows in a course.
	//
	// If the student is not enrolled, an error wrapping models.ErrNotFound will be returned together with nil.
	GetCourseProgress(ctx context.Context, studentID, courseID int) ([]models.Progress, error)
}

// ProgressHandler handles progress HTTP requests
type ProgressHandler struct {
	handlers.BaseHandler
	progressService ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     handlers.BaseHandler{Logger: logger},
		progressService: progressService,
	}
}

// RegisterRoutes registers progress routes behind the student middleware
func (h *ProgressHandler) RegisterRoutes(r chi.Router, studentMiddleware func(http.Handler) http.Handler) {
	r.Route("/progress", func(r chi.Router) {
		r.Use(studentMiddleware)
		r.Post("/update", h.UpdateProgress)
		r.Get("/", h.GetCourseProgress)
	})
}

// UpdateProgress handles POST /progress/update
// @Summary Record progress
// @Description Store the caller's completion percentage for one content item and recompute the enrollment
// @Tags progress
// @Accept json
// @Produce json
// @Param request body models.UpdateProgressRequest true "Progress"
// @Success 200 {object} models.Progress "Progress record"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Course, content or enrollment not found"
// @Security ApiKeyAuth
// @Router /progress/update [post]
func (h *ProgressHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	studentID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	var req models.UpdateProgressRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	progress, err := h.progressService.UpdateProgress(r.Context(), studentID, &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "update progress")
		return
	}
	h.RespondJSON(w, http.StatusOK, progress)
}

// GetCourseProgress handles GET /progress?courseId=
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Param courseId query int true "Course ID"
// @Success 200 {array} models.Progress "Progress records"
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 404 {object} map[string]string "Not enrolled"
// @Security ApiKeyAuth
// @Router /progress [get]
func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
	studentID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}

	courseID, err := strconv.Atoi(r.URL.Query().Get("courseId"))
	if err != nil || courseID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid courseId")
		return
	}

	records, err := h.progressService.GetCourseProgress(r.Context(), studentID, courseID)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get progress")
		return
	}
	h.RespondJSON(w, http.StatusOK, records)
}
