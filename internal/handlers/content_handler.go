package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// ContentService is the interface that wraps methods for course content operations
type ContentService interface {
	// Method UploadContent stores the file and records it as content of the course.
	//
	// If course not found, an error wrapping models.ErrNotFound will be returned together with nil.
	UploadContent(ctx context.Context, req *models.UploadContentRequest, file io.ReadSeeker, filename, mimeType string) (*models.Content, error)
	// Method AddContent records content whose file is hosted elsewhere.
	//
	// If course not found, an error wrapping models.ErrNotFound will be returned together with nil.
	AddContent(ctx context.Context, req *models.AddContentRequest) (*models.Content, error)
	// Method ListContents returns the contents of a course in display order.
	//
	// If course not found, an error wrapping models.ErrNotFound will be returned together with nil.
	ListContents(ctx context.Context, courseID int) ([]models.Content, error)
	// Method DeleteContent removes a content item and, best effort, its file.
	//
	// If content not found, an error wrapping models.ErrNotFound will be returned.
	DeleteContent(ctx context.Context, id int) error
}

// ContentHandler handles content-related HTTP requests
type ContentHandler struct {
	handlers.BaseHandler
	contentService ContentService
	maxUploadSize  int64
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService ContentService, logger *zap.Logger, maxUploadSize int64) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    handlers.BaseHandler{Logger: logger},
		contentService: contentService,
		maxUploadSize:  maxUploadSize,
	}
}

// RegisterRoutes registers content routes. Listing is public, writing requires the teacher middleware.
func (h *ContentHandler) RegisterRoutes(r chi.Router, teacherMiddleware func(http.Handler) http.Handler) {
	r.Route("/contents", func(r chi.Router) {
		r.Get("/course/{courseId}", h.ListContents)
		r.Group(func(r chi.Router) {
			r.Use(teacherMiddleware)
			r.Post("/", h.AddContent)
			r.Post("/upload", h.UploadContent)
			r.Delete("/{id}", h.DeleteContent)
		})
	})
}

// UploadContent handles POST /contents/upload
// @Summary Upload content file
// @Description Store the file in the object store, or on local disk when the object store is unavailable
// @Tags contents
// @Accept multipart/form-data
// @Produce json
// @Param courseId formData int true "Course ID"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param contentType formData string false "Content type"
// @Param orderIndex formData int false "Position in the course"
// @Param file formData file true "File"
// @Success 201 {object} models.Content "Created content"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 413 {object} map[string]string "File too large"
// @Security ApiKeyAuth
// @Router /contents/upload [post]
func (h *ContentHandler) UploadContent(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large") {
			h.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	req := models.UploadContentRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		ContentType: r.FormValue("contentType"),
	}
	if req.CourseID, err = strconv.Atoi(r.FormValue("courseId")); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid courseId")
		return
	}
	if orderIndex := r.FormValue("orderIndex"); orderIndex != "" {
		if req.OrderIndex, err = strconv.Atoi(orderIndex); err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid orderIndex")
			return
		}
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	content, err := h.contentService.UploadContent(r.Context(), &req, file, header.Filename, mimeType)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "upload content")
		return
	}
	h.RespondJSON(w, http.StatusCreated, content)
}

// AddContent handles POST /contents
// @Summary Add content metadata
// @Tags contents
// @Accept json
// @Produce json
// @Param request body models.AddContentRequest true "Content data"
// @Success 201 {object} models.Content "Created content"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Course not found"
// @Security ApiKeyAuth
// @Router /contents [post]
func (h *ContentHandler) AddContent(w http.ResponseWriter, r *http.Request) {
	var req models.AddContentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.contentService.AddContent(r.Context(), &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "add content")
		return
	}
	h.RespondJSON(w, http.StatusCreated, content)
}

// ListContents handles GET /contents/course/{courseId}
// @Summary List course contents
// @Tags contents
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {array} models.Content "Contents"
// @Failure 404 {object} map[string]string "Course not found"
// @Router /contents/course/{courseId} [get]
func (h *ContentHandler) ListContents(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIDParam(r, "courseId")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid course ID")
		return
	}

	contents, err := h.contentService.ListContents(r.Context(), courseID)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "list contents")
		return
	}
	h.RespondJSON(w, http.StatusOK, contents)
}

// DeleteContent handles DELETE /contents/{id}
// @Summary Delete content
// @Tags contents
// @Param id path int true "Content ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Content not found"
// @Security ApiKeyAuth
// @Router /contents/{id} [delete]
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid content ID")
		return
	}

	if err := h.contentService.DeleteContent(r.Context(), id); err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "delete content")
		return
	}
	h.RespondNoContent(w)
}
