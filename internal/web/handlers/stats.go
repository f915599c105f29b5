package handlers

import (
	"net/http"

	"github.com/vhruby/smart-album/internal/album"
)

// StatsHandler reports store and index counts.
type StatsHandler struct {
	album *album.Service
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(svc *album.Service) *StatsHandler {
	return &StatsHandler{album: svc}
}

// Get returns the album statistics snapshot.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.album.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
