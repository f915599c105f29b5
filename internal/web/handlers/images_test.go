package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/database"
)

func TestImagesList(t *testing.T) {
	svc, _, _ := newTestService(t)
	uploadPhoto(t, svc, "a.jpg")
	uploadPhoto(t, svc, "b.jpg")

	h := NewImagesHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/images?limit=1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var resp imageListResponse
	parseJSONResponse(t, rec, &resp)
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
	if len(resp.Images) != 1 {
		t.Fatalf("page has %d images, want 1", len(resp.Images))
	}
}

func TestImagesGet(t *testing.T) {
	svc, _, _ := newTestService(t)
	uploaded := uploadPhoto(t, svc, "a.jpg")

	h := NewImagesHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/images/1", nil)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var img database.StoredImage
	parseJSONResponse(t, rec, &img)
	if img.ID != uploaded.ImageID {
		t.Fatalf("image ID = %d, want %d", img.ID, uploaded.ImageID)
	}
}

func TestImagesGetMissing(t *testing.T) {
	svc, _, _ := newTestService(t)

	h := NewImagesHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/images/42", nil)
	req = requestWithChiParams(req, map[string]string{"id": "42"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusNotFound)
}

func TestImagesGetInvalidID(t *testing.T) {
	svc, _, _ := newTestService(t)

	h := NewImagesHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/images/abc", nil)
	req = requestWithChiParams(req, map[string]string{"id": "abc"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestImagesBatchDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	uploaded := uploadPhoto(t, svc, "a.jpg")

	h := NewImagesHandler(svc)
	req := jsonRequest(t, http.MethodPost, "/api/images/delete",
		batchDeleteRequest{IDs: []int64{uploaded.ImageID, 999}})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	var result album.BatchResult
	parseJSONResponse(t, rec, &result)
	if result.Succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", result.Succeeded)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != 999 {
		t.Fatalf("failed IDs = %v, want [999]", result.FailedIDs)
	}
}

func TestImagesBatchDeleteEmpty(t *testing.T) {
	svc, _, _ := newTestService(t)

	h := NewImagesHandler(svc)
	req := jsonRequest(t, http.MethodPost, "/api/images/delete", batchDeleteRequest{})
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusBadRequest)
}

func TestImagesBatchTag(t *testing.T) {
	svc, store, _ := newTestService(t)
	uploaded := uploadPhoto(t, svc, "a.jpg")

	h := NewImagesHandler(svc)
	req := jsonRequest(t, http.MethodPost, "/api/images/tags",
		batchTagRequest{IDs: []int64{uploaded.ImageID}, Tags: []string{"holiday"}})
	rec := httptest.NewRecorder()
	h.Tag(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	img, err := store.GetImage(req.Context(), uploaded.ImageID)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if len(img.Tags) != 1 || img.Tags[0] != "holiday" {
		t.Fatalf("tags = %v, want [holiday]", img.Tags)
	}
}

func TestImagesEnrichWithoutProvider(t *testing.T) {
	svc, _, _ := newTestService(t)
	uploadPhoto(t, svc, "a.jpg")

	h := NewImagesHandler(svc)
	req := httptest.NewRequest(http.MethodPost, "/api/images/1/enrich", nil)
	req = requestWithChiParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.Enrich(rec, req)

	assertStatusCode(t, rec, http.StatusServiceUnavailable)
}
