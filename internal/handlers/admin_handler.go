package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for user management
type AdminService interface {
	// Method ListUsers returns all users.
	ListUsers(ctx context.Context) ([]models.UserResponse, error)
	// Method AssignRole changes a user's role.
	//
	// If the role is unknown, an error wrapping models.ErrValidation will be returned together with nil.
	// If user not found, an error wrapping models.ErrNotFound will be returned together with nil.
	AssignRole(ctx context.Context, userID int, req *models.AssignRoleRequest) (*models.UserResponse, error)
	// Method DeleteUser deletes a user on behalf of actorID.
	//
	// If user not found, an error wrapping models.ErrNotFound will be returned.
	DeleteUser(ctx context.Context, userID, actorID int) error
}

// Recomputer recomputes the cached completion percentage of an enrollment
type Recomputer interface {
	// Method Recompute derives and stores the completion percentage of the enrollment.
	//
	// If enrollment not found, an error wrapping models.ErrNotFound will be returned together with 0.
	Recompute(ctx context.Context, enrollmentID int) (float64, error)
}

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	handlers.BaseHandler
	adminService      AdminService
	courseService     CourseService
	enrollmentService EnrollmentService
	aggregator        Recomputer
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	adminService AdminService,
	courseService CourseService,
	enrollmentService EnrollmentService,
	aggregator Recomputer,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:       handlers.BaseHandler{Logger: logger},
		adminService:      adminService,
		courseService:     courseService,
		enrollmentService: enrollmentService,
		aggregator:        aggregator,
	}
}

// RegisterRoutes registers all admin handler routes.
// The router is expected to already carry the admin role middleware.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/users", h.ListUsers)
		r.Patch("/users/{id}/role", h.AssignRole)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Get("/courses", h.ListCourses)
		r.Delete("/courses/{id}", h.DeleteCourse)
		r.Get("/enrollments", h.ListEnrollments)
		r.Patch("/enrollments/{id}/status", h.UpdateEnrollmentStatus)
		r.Post("/enrollments/{id}/recompute", h.RecomputeEnrollment)
	})
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Success 200 {array} models.UserResponse "Users"
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list users")
		return
	}
	h.RespondJSON(w, http.StatusOK, users)
}

// AssignRole handles PATCH /admin/users/{id}/role
// @Summary Assign role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body models.AssignRoleRequest true "Role"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 400 {object} map[string]string "Invalid role"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var req models.AssignRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.AssignRole(r.Context(), userID, &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "assign role")
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete user
// @Tags admin
// @Param id path int true "User ID"
// @Success 204 "Deleted"
// @Failure 400 {object} map[string]string "Invalid user ID or own account"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUserID(&h.BaseHandler, w, r)
	if !ok {
		return
	}
	userID, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), userID, actorID); err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "delete user")
		return
	}
	h.RespondNoContent(w)
}

// ListCourses handles GET /admin/courses
// @Summary List all courses
// @Tags admin
// @Produce json
// @Success 200 {array} models.CourseListItem "Courses"
// @Security ApiKeyAuth
// @Router /admin/courses [get]
func (h *AdminHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list courses")
		return
	}
	h.RespondJSON(w, http.StatusOK, courses)
}

// DeleteCourse handles DELETE /admin/courses/{id}
// @Summary Delete course
// @Description Delete a course with its contents, enrollments and stored files
// @Tags admin
// @Param id path int true "Course ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Course not found"
// @Security ApiKeyAuth
// @Router /admin/courses/{id} [delete]
func (h *AdminHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), courseID); err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "delete course")
		return
	}
	h.RespondNoContent(w)
}

// ListEnrollments handles GET /admin/enrollments
// @Summary List all enrollments
// @Tags admin
// @Produce json
// @Success 200 {array} models.EnrollmentListItem "Enrollments"
// @Security ApiKeyAuth
// @Router /admin/enrollments [get]
func (h *AdminHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.enrollmentService.ListAllEnrollments(r.Context())
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list enrollments")
		return
	}
	h.RespondJSON(w, http.StatusOK, enrollments)
}

// UpdateEnrollmentStatus handles PATCH /admin/enrollments/{id}/status
// @Summary Update enrollment status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param request body models.UpdateEnrollmentStatusRequest true "Status"
// @Success 200 {object} models.Enrollment "Updated enrollment"
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Security ApiKeyAuth
// @Router /admin/enrollments/{id}/status [patch]
func (h *AdminHandler) UpdateEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid enrollment ID")
		return
	}

	var req models.UpdateEnrollmentStatusRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enrollment, err := h.enrollmentService.UpdateStatus(r.Context(), enrollmentID, &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "update enrollment status")
		return
	}
	h.RespondJSON(w, http.StatusOK, enrollment)
}

// RecomputeEnrollment handles POST /admin/enrollments/{id}/recompute
// @Summary Recompute enrollment progress
// @Tags admin
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} models.RecomputeResponse "Recomputed percentage"
// @Failure 404 {object} map[string]string "Enrollment not found"
// @Security ApiKeyAuth
// @Router /admin/enrollments/{id}/recompute [post]
func (h *AdminHandler) RecomputeEnrollment(w http.ResponseWriter, r *http.Request) {
	enrollmentID, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid enrollment ID")
		return
	}

	percentage, err := h.aggregator.Recompute(r.Context(), enrollmentID)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "recompute enrollment")
		return
	}
	h.RespondJSON(w, http.StatusOK, models.RecomputeResponse{
		EnrollmentID:       enrollmentID,
		ProgressPercentage: percentage,
	})
}
