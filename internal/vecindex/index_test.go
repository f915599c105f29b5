package vecindex

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
)

// unitVec returns a deterministic unit-norm vector for the given seed.
func unitVec(dim int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	v := make([]float32, dim)
	var norm float64
	for i := range v {
		v[i] = float32(rng.NormFloat64())
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func TestAddAndSearchRoundTrip(t *testing.T) {
	ix := New(64, "")
	vecs := make(map[int64][]float32)
	for id := int64(1); id <= 20; id++ {
		vecs[id] = unitVec(64, id)
		if err := ix.Add(vecs[id], id); err != nil {
			t.Fatalf("Add(%d) failed: %v", id, err)
		}
	}

	// Searching for a stored vector must return itself as top-1 with
	// similarity ~1.0.
	for id := int64(1); id <= 20; id++ {
		results, err := ix.Search(vecs[id], 3)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) == 0 {
			t.Fatalf("no results for id %d", id)
		}
		if results[0].ID != id {
			t.Errorf("top-1 for id %d = %d", id, results[0].ID)
		}
		if math.Abs(float64(results[0].Score)-1.0) > 1e-4 {
			t.Errorf("top-1 score for id %d = %f; want ~1.0", id, results[0].Score)
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New(8, "")
	results, err := ix.Search(unitVec(8, 1), 5)
	if err != nil {
		t.Fatalf("Search on empty index returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestSearchFewerThanK(t *testing.T) {
	ix := New(16, "")
	for id := int64(1); id <= 3; id++ {
		if err := ix.Add(unitVec(16, id), id); err != nil {
			t.Fatal(err)
		}
	}
	results, err := ix.Search(unitVec(16, 99), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("expected all 3 vectors, got %d", len(results))
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := New(8, "")
	err := ix.Add(unitVec(16, 1), 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if ix.Count() != 0 {
		t.Errorf("count = %d after failed add; want 0", ix.Count())
	}
}

func TestUpdateIsRemoveThenAdd(t *testing.T) {
	ix := New(32, "")
	v1 := unitVec(32, 1)
	v2 := unitVec(32, 2)

	if err := ix.Add(v1, 7); err != nil {
		t.Fatal(err)
	}
	if err := ix.Update(v2, 7); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if ix.Count() != 1 {
		t.Fatalf("count = %d after update; want 1", ix.Count())
	}

	// Searching with the new vector returns the ID as top-1 with ~1.0.
	results, err := ix.Search(v2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 7 {
		t.Fatalf("expected id 7 as top-1 for new vector, got %+v", results)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-4 {
		t.Errorf("new-vector score = %f; want ~1.0", results[0].Score)
	}

	// Searching with the old vector must not report the old ~1.0 score.
	results, err = ix.Search(v1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 1 && results[0].ID == 7 && results[0].Score > 0.99 {
		t.Errorf("old vector still scores %f for id 7 after update", results[0].Score)
	}
}

func TestAddDuplicateID(t *testing.T) {
	ix := New(16, "")
	if err := ix.Add(unitVec(16, 1), 1); err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(unitVec(16, 2), 1); err == nil {
		t.Fatal("expected error when adding an existing ID")
	}
	if ix.Count() != 1 {
		t.Errorf("count = %d after rejected add; want 1", ix.Count())
	}
}

func TestUpdateRepeatedly(t *testing.T) {
	ix := New(32, "")
	for id := int64(1); id <= 5; id++ {
		if err := ix.Add(unitVec(32, id), id); err != nil {
			t.Fatal(err)
		}
	}

	// Replacing the same vector over and over must keep graph and map in
	// step: one live entry per ID, latest vector winning the search.
	var latest []float32
	for seed := int64(10); seed <= 14; seed++ {
		latest = unitVec(32, seed)
		if err := ix.Update(latest, 3); err != nil {
			t.Fatalf("Update(seed %d) failed: %v", seed, err)
		}
	}

	if ix.Count() != 5 {
		t.Fatalf("count = %d after updates; want 5", ix.Count())
	}
	results, err := ix.Search(latest, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 3 {
		t.Fatalf("expected id 3 as top-1 for latest vector, got %+v", results)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-4 {
		t.Errorf("latest-vector score = %f; want ~1.0", results[0].Score)
	}
}

func TestReAddAfterRemove(t *testing.T) {
	ix := New(16, "")
	if err := ix.Add(unitVec(16, 1), 1); err != nil {
		t.Fatal(err)
	}
	if removed := ix.RemoveBatch([]int64{1}); removed != 1 {
		t.Fatalf("RemoveBatch removed %d; want 1", removed)
	}

	v2 := unitVec(16, 2)
	if err := ix.Add(v2, 1); err != nil {
		t.Fatalf("re-adding a removed ID failed: %v", err)
	}
	results, err := ix.Search(v2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("expected re-added id 1 as top-1, got %+v", results)
	}
}

func TestRemoveBatch(t *testing.T) {
	ix := New(16, "")
	for id := int64(1); id <= 5; id++ {
		if err := ix.Add(unitVec(16, id), id); err != nil {
			t.Fatal(err)
		}
	}

	removed := ix.RemoveBatch([]int64{2, 4, 99})
	if removed != 2 {
		t.Errorf("RemoveBatch removed %d; want 2 (absent IDs are tolerated)", removed)
	}
	if ix.Count() != 3 {
		t.Errorf("count = %d; want 3", ix.Count())
	}

	// Removed IDs must not appear in search results.
	results, err := ix.Search(unitVec(16, 2), 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.ID == 2 || r.ID == 4 {
			t.Errorf("removed id %d returned from search", r.ID)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.index")

	ix := New(32, path)
	for id := int64(1); id <= 10; id++ {
		if err := ix.Add(unitVec(32, id), id); err != nil {
			t.Fatal(err)
		}
	}
	ix.RemoveBatch([]int64{3})
	if err := ix.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Loading into a fresh index drops the removed vector for good.
	loaded := New(32, path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 9 {
		t.Errorf("loaded count = %d; want 9", loaded.Count())
	}
	if loaded.Contains(3) {
		t.Error("removed id 3 survived save/load")
	}

	results, err := loaded.Search(unitVec(32, 5), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 5 {
		t.Errorf("expected id 5 as top-1 after reload, got %+v", results)
	}
}

func TestLoadMissingFile(t *testing.T) {
	ix := New(8, filepath.Join(t.TempDir(), "absent.index"))
	if err := ix.Load(); err != nil {
		t.Fatalf("Load of missing file should start empty, got %v", err)
	}
	if ix.Count() != 0 {
		t.Errorf("count = %d; want 0", ix.Count())
	}
}

func TestLoadDimensionMismatchRebuildsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dim.index")

	old := New(16, path)
	if err := old.Add(unitVec(16, 1), 1); err != nil {
		t.Fatal(err)
	}
	if err := old.Save(); err != nil {
		t.Fatal(err)
	}

	ix := New(32, path)
	err := ix.Load()
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if ix.Count() != 0 {
		t.Errorf("index should be empty after dimension mismatch, count = %d", ix.Count())
	}

	// The incompatible files are gone; a subsequent save/load works at the
	// new dimension.
	if err := ix.Add(unitVec(32, 2), 2); err != nil {
		t.Fatal(err)
	}
	if err := ix.Save(); err != nil {
		t.Fatal(err)
	}
	fresh := New(32, path)
	if err := fresh.Load(); err != nil {
		t.Fatalf("reload after rebuild failed: %v", err)
	}
	if fresh.Count() != 1 {
		t.Errorf("count = %d; want 1", fresh.Count())
	}
}
