package handlers

import (
	"io"
	"net/http"

	"github.com/vhruby/smart-album/internal/album"
)

// UploadHandler handles photo uploads.
type UploadHandler struct {
	album *album.Service
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(svc *album.Service) *UploadHandler {
	return &UploadHandler{album: svc}
}

type uploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type uploadResponse struct {
	Uploaded []album.IngestResult `json:"uploaded"`
	Failed   []uploadFailure      `json:"failed,omitempty"`
}

// Upload ingests one or more photos from a multipart form. Each file is
// handled in isolation; the response reports both outcomes.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	resp := uploadResponse{Uploaded: []album.IngestResult{}}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			resp.Failed = append(resp.Failed, uploadFailure{Filename: header.Filename, Error: "failed to open file"})
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			resp.Failed = append(resp.Failed, uploadFailure{Filename: header.Filename, Error: "failed to read file"})
			continue
		}

		result, err := h.album.Ingest(r.Context(), header.Filename, data)
		if err != nil {
			resp.Failed = append(resp.Failed, uploadFailure{Filename: header.Filename, Error: err.Error()})
			continue
		}
		resp.Uploaded = append(resp.Uploaded, *result)
	}

	status := http.StatusOK
	if len(resp.Uploaded) == 0 {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, resp)
}
