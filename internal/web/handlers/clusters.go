package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/database"
)

// ClustersHandler handles face cluster endpoints.
type ClustersHandler struct {
	album *album.Service
}

// NewClustersHandler creates a new clusters handler.
func NewClustersHandler(svc *album.Service) *ClustersHandler {
	return &ClustersHandler{album: svc}
}

// List returns all face clusters with their face counts, largest first.
func (h *ClustersHandler) List(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.album.ListClusters(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if clusters == nil {
		clusters = []database.FaceCluster{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"clusters": clusters})
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename assigns a person name to a cluster.
func (h *ClustersHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid cluster ID")
		return
	}

	var req renameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.album.RenameCluster(r.Context(), id, req.Name); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
