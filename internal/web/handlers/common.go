// Package handlers implements the HTTP handlers for the album API. Handlers
// stay thin: decode the request, call the album service, map the error kind
// to a status code.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/database"
)

// errInvalidRequestBody is a shared error message for invalid JSON bodies.
const errInvalidRequestBody = "invalid request body"

// maxUploadSize caps multipart upload memory buffering (64 MB).
const maxUploadSize = 64 << 20

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps album and database error kinds to status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, album.ErrUnsupportedInput):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrIntegrity), errors.Is(err, album.ErrAlreadyRunning):
		status = http.StatusConflict
	case errors.Is(err, album.ErrNotReady), errors.Is(err, album.ErrCollaboratorUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, album.ErrEmbeddingFailure), errors.Is(err, album.ErrEnrichmentFailure):
		status = http.StatusBadGateway
	}
	respondError(w, status, err.Error())
}

// decodeJSON decodes the request body into dst, responding with 400 on
// failure. Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return false
	}
	return true
}

// readMultipartFile extracts one uploaded file from the form field, capped at
// maxUploadSize. Returns the filename and content.
func readMultipartFile(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return "", nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field "+field)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return "", nil, false
	}
	return header.Filename, data, true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
