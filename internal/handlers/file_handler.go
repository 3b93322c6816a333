package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// FileOpener opens files kept on local disk
type FileOpener interface {
	// Method Open opens a stored file by its base name.
	//
	// If the file does not exist, an error wrapping models.ErrNotFound will be returned together with nil.
	Open(name string) (*os.File, error)
}

// FileHandler serves uploads that fell back to local disk
type FileHandler struct {
	handlers.BaseHandler
	files FileOpener
}

// NewFileHandler creates a new file handler
func NewFileHandler(files FileOpener, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		files:       files,
	}
}

// RegisterRoutes registers the public upload route
func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/uploads/{filename}", h.ServeFile)
}

// ServeFile handles GET /uploads/{filename}
// @Summary Download an uploaded file
// @Tags files
// @Produce octet-stream
// @Param filename path string true "Stored file name"
// @Success 200 {file} file "File"
// @Failure 404 {object} map[string]string "File not found"
// @Router /uploads/{filename} [get]
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))

	file, err := h.files.Open(name)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "open file")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		h.RespondError(w, http.StatusNotFound, "file not found")
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), file)
}
