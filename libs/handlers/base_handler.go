// Package handlers holds the response helpers shared by every HTTP handler
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ErrTrailingData is returned by DecodeJSON when the body holds more than one JSON value
var ErrTrailingData = errors.New("unexpected data after JSON body")

// BaseHandler carries the logger and the JSON helpers handlers embed
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON writes data as JSON with the given status; a nil data writes headers only
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError writes {"error": message}
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondNoContent answers 204 without a body
func (h *BaseHandler) RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes exactly one JSON value from the request body into dst.
// Unknown fields and trailing data are rejected.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}
