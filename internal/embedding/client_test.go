package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

func TestImageEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/image" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("part content type = %s; want image/jpeg", header.Header.Get("Content-Type"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"dim":       4,
			"embedding": []float32{0.1, 0.2, 0.3, 0.4},
			"model":     "clip",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	emb, err := client.ImageEmbedding(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("ImageEmbedding failed: %v", err)
	}
	if len(emb) != 4 || emb[0] != 0.1 {
		t.Errorf("unexpected embedding: %v", emb)
	}
}

func TestTextEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/text" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["text"] != "dog on a beach" {
			t.Errorf("text = %q", req["text"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dim":       2,
			"embedding": []float32{0.5, 0.6},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	emb, err := client.TextEmbedding(context.Background(), "dog on a beach")
	if err != nil {
		t.Fatalf("TextEmbedding failed: %v", err)
	}
	if len(emb) != 2 {
		t.Errorf("unexpected embedding: %v", emb)
	}
}

func TestDetectFacesEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"faces_count": 0, "faces": []any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	faces, err := client.DetectFaces(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

func TestDetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"faces_count": 1,
			"faces": []map[string]any{{
				"face_index": 0,
				"dim":        3,
				"embedding":  []float32{0.7, 0.8, 0.9},
				"bbox":       []float64{10, 20, 110, 120},
				"det_score":  0.97,
			}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	faces, err := client.DetectFaces(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("DetectFaces failed: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	if faces[0].DetScore != 0.97 || len(faces[0].BBox) != 4 {
		t.Errorf("unexpected face: %+v", faces[0])
	}
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.SemanticEmbedding(context.Background(), "query"); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestEmptyEmbeddingRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"dim": 0, "embedding": []float32{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.TextEmbedding(context.Background(), "query"); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x00, 0x00}, "image/gif"},
		{"too short", []byte{0x01}, "application/octet-stream"},
		{"unknown", []byte{0, 1, 2, 3, 4, 5, 6, 7}, "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectMIMEType(tc.data); got != tc.expected {
				t.Errorf("detectMIMEType = %q; want %q", got, tc.expected)
			}
		})
	}
}
