package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/auth/middleware"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// statusFromError maps a service error class to an HTTP status
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Internal errors are logged and hidden from the client.
func respondServiceError(h *handlers.BaseHandler, w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("failed to "+action, zap.Error(err), zap.String("path", r.URL.Path))
		h.RespondError(w, status, "internal server error")
		return
	}
	h.RespondError(w, status, err.Error())
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// currentUserID returns the authenticated user's ID
func currentUserID(h *handlers.BaseHandler, w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}
