package handlers

import (
	"net/http"

	"github.com/vhruby/smart-album/internal/album"
)

// SearchHandler handles text, image and face search endpoints.
type SearchHandler struct {
	album *album.Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(svc *album.Service) *SearchHandler {
	return &SearchHandler{album: svc}
}

type textSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Hits []album.SearchHit `json:"hits"`
}

// ByText searches photos matching a natural-language query.
func (h *SearchHandler) ByText(w http.ResponseWriter, r *http.Request) {
	var req textSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hits, err := h.album.SearchByText(r.Context(), req.Query, req.Limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if hits == nil {
		hits = []album.SearchHit{}
	}
	respondJSON(w, http.StatusOK, searchResponse{Hits: hits})
}

// ByImage searches photos visually similar to an uploaded image.
func (h *SearchHandler) ByImage(w http.ResponseWriter, r *http.Request) {
	_, data, ok := readMultipartFile(w, r, "file")
	if !ok {
		return
	}

	hits, err := h.album.SearchByImage(r.Context(), data)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if hits == nil {
		hits = []album.SearchHit{}
	}
	respondJSON(w, http.StatusOK, searchResponse{Hits: hits})
}

// ByFace searches photos of the person pictured in an uploaded image.
func (h *SearchHandler) ByFace(w http.ResponseWriter, r *http.Request) {
	_, data, ok := readMultipartFile(w, r, "file")
	if !ok {
		return
	}

	hits, err := h.album.SearchByFace(r.Context(), data)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if hits == nil {
		hits = []album.SearchHit{}
	}
	respondJSON(w, http.StatusOK, searchResponse{Hits: hits})
}

// ByPerson searches photos of a person by cluster name.
func (h *SearchHandler) ByPerson(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	images, err := h.album.SearchByPerson(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"images": images})
}
