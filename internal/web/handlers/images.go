package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/database"
)

const defaultPageSize = 50

// ImagesHandler handles image listing, detail and batch endpoints.
type ImagesHandler struct {
	album *album.Service
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(svc *album.Service) *ImagesHandler {
	return &ImagesHandler{album: svc}
}

type imageListResponse struct {
	Images []database.StoredImage `json:"images"`
	Total  int                    `json:"total"`
}

// List returns one page of images plus the total count.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	images, total, err := h.album.ListImages(r.Context(), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if images == nil {
		images = []database.StoredImage{}
	}
	respondJSON(w, http.StatusOK, imageListResponse{Images: images, Total: total})
}

// Get returns one image's metadata.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image ID")
		return
	}

	img, err := h.album.GetImage(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, img)
}

type batchDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// Delete removes a batch of images.
func (h *ImagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.album.DeleteImages(r.Context(), req.IDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type batchTagRequest struct {
	IDs  []int64  `json:"ids"`
	Tags []string `json:"tags"`
}

// Tag replaces the tag set on a batch of images.
func (h *ImagesHandler) Tag(w http.ResponseWriter, r *http.Request) {
	var req batchTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.album.TagImages(r.Context(), req.IDs, req.Tags)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Enrich describes one image on demand.
func (h *ImagesHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image ID")
		return
	}

	img, err := h.album.EnrichImage(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, img)
}
