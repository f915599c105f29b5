package handlers

import (
	"net/http"

	"github.com/vhruby/smart-album/internal/album"
)

// EnrichmentHandler controls the background enrichment worker.
type EnrichmentHandler struct {
	album *album.Service
}

// NewEnrichmentHandler creates a new enrichment handler.
func NewEnrichmentHandler(svc *album.Service) *EnrichmentHandler {
	return &EnrichmentHandler{album: svc}
}

// Start launches the enrichment worker over all un-described photos.
func (h *EnrichmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.album.StartEnrichment(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, h.album.GetEnrichmentStatus())
}

// Stop asks the worker to stop after the item in flight.
func (h *EnrichmentHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.album.StopEnrichment()
	respondJSON(w, http.StatusOK, h.album.GetEnrichmentStatus())
}

// Status returns the worker snapshot.
func (h *EnrichmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.album.GetEnrichmentStatus())
}
