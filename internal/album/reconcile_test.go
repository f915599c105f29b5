package album

import (
	"context"
	"testing"
)

func TestReconcileRemovesOrphanVectors(t *testing.T) {
	env := newTestEnv(t)

	ingestWithFace(t, env, "a.jpg", []float32{1, 0, 0, 0})

	// Vectors with no backing rows, as left behind by a crash between an
	// index save and a row delete.
	orphanPhoto := make([]float32, env.photos.Dim())
	orphanPhoto[0] = 1
	if err := env.photos.Add(orphanPhoto, 999); err != nil {
		t.Fatalf("adding orphan photo vector: %v", err)
	}
	if err := env.facesIdx.Add([]float32{0, 0, 0, 1}, 888); err != nil {
		t.Fatalf("adding orphan face vector: %v", err)
	}

	report, err := env.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.OrphanPhotoVectors != 1 {
		t.Fatalf("removed %d orphan photo vectors, want 1", report.OrphanPhotoVectors)
	}
	if report.OrphanFaceVectors != 1 {
		t.Fatalf("removed %d orphan face vectors, want 1", report.OrphanFaceVectors)
	}
	if env.photos.Count() != 1 || env.facesIdx.Count() != 1 {
		t.Fatalf("index counts = %d/%d, want 1/1", env.photos.Count(), env.facesIdx.Count())
	}
}

func TestReconcileReindexesLostPhotos(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.Ingest(context.Background(), "a.jpg", []byte("one"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	// Simulate a discarded index file, e.g. after a dimension change.
	env.photos.RemoveBatch([]int64{result.ImageID})
	if env.photos.Count() != 0 {
		t.Fatal("setup: photo index should be empty")
	}

	report, err := env.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.ReindexedPhotos != 1 {
		t.Fatalf("re-indexed %d photos, want 1", report.ReindexedPhotos)
	}
	if env.photos.Count() != 1 {
		t.Fatalf("photo index has %d vectors, want 1", env.photos.Count())
	}

	// The rebuilt vector must be searchable again.
	hits, err := env.svc.SearchByText(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("SearchByText: %v", err)
	}
	if len(hits) != 1 || hits[0].Image.ID != result.ImageID {
		t.Fatalf("unexpected hits: %+v", hits)
	}
}

func TestReconcileNoopOnConsistentState(t *testing.T) {
	env := newTestEnv(t)

	ingestWithFace(t, env, "a.jpg", []float32{1, 0, 0, 0})

	report, err := env.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.OrphanPhotoVectors != 0 || report.OrphanFaceVectors != 0 || report.ReindexedPhotos != 0 {
		t.Fatalf("reconcile changed a consistent state: %+v", report)
	}
}
