package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/config"
	"github.com/vhruby/smart-album/internal/database/mock"
	"github.com/vhruby/smart-album/internal/embedding"
	"github.com/vhruby/smart-album/internal/vecindex"
)

// stubEmbedder is a minimal embedding.Provider for handler tests: every
// image and text maps to the same unit vector, and no faces are detected.
type stubEmbedder struct {
	faces []embedding.FaceDetection
}

func (s *stubEmbedder) ImageEmbedding(context.Context, []byte) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (s *stubEmbedder) TextEmbedding(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0, 0}, nil
}

func (s *stubEmbedder) SemanticEmbedding(context.Context, string) ([]float32, error) {
	return []float32{0.6, 0.8}, nil
}

func (s *stubEmbedder) DetectFaces(context.Context, []byte) ([]embedding.FaceDetection, error) {
	return s.faces, nil
}

// newTestService builds an album service over the in-memory store. The
// returned stub can be mutated to make subsequent uploads carry faces.
func newTestService(t *testing.T) (*album.Service, *mock.Store, *stubEmbedder) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{VisualDim: 4, SemanticDim: 2, FaceDim: 4},
		Album:     config.AlbumConfig{FaceMatchThreshold: 0.5},
	}

	store := mock.NewStore()
	photos := vecindex.New(cfg.Embedding.CompositeDim(), filepath.Join(dir, "photos.index"))
	faces := vecindex.New(cfg.Embedding.FaceDim, filepath.Join(dir, "faces.index"))
	files, err := album.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	stub := &stubEmbedder{}
	svc := album.New(cfg, log.New(io.Discard), store, photos, faces, stub, nil, files)
	return svc, store, stub
}

// uploadPhoto ingests one photo directly through the service.
func uploadPhoto(t *testing.T, svc *album.Service, name string) *album.IngestResult {
	t.Helper()
	result, err := svc.Ingest(context.Background(), name, []byte(name))
	if err != nil {
		t.Fatalf("Ingest %s: %v", name, err)
	}
	return result
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a request with one file in the given form field.
func multipartRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams attaches chi URL parameters to a request.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
