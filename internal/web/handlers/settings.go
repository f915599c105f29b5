package handlers

import (
	"net/http"

	"github.com/vhruby/smart-album/internal/album"
)

// SettingsHandler handles the runtime settings endpoints.
type SettingsHandler struct {
	album *album.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc *album.Service) *SettingsHandler {
	return &SettingsHandler{album: svc}
}

// Get returns the current runtime settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.album.GetSettings())
}

// Update replaces the runtime settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings album.Settings
	if !decodeJSON(w, r, &settings) {
		return
	}
	h.album.UpdateSettings(settings)
	respondJSON(w, http.StatusOK, h.album.GetSettings())
}
