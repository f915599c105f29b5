// Package vecindex provides a nearest-neighbor index over fixed-dimension
// float32 vectors keyed by caller-assigned int64 IDs. Vectors are expected to
// be pre-normalized by the caller; scores are plain inner products.
package vecindex

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// MaxNeighbors (M) is the maximum number of neighbors per node.
// Higher values improve recall but increase memory and build time.
const MaxNeighbors = 16

const metadataVersion = 1

// ErrDimensionMismatch is returned when a vector's dimension does not match
// the index's configured dimension, or when a persisted index file was built
// for a different dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Result is a single search hit: the stored ID and its inner-product score.
type Result struct {
	ID    int64
	Score float32
}

// Metadata is persisted next to the index file for validation on load.
type Metadata struct {
	Dim     int   `json:"dim"`
	Count   int   `json:"count"`
	Version int   `json:"version"`
	MaxID   int64 `json:"max_id"`
}

// Index wraps an HNSW graph with an authoritative id-to-vector map. The map
// carries what Save persists and what Load rebuilds the graph from; every
// mutation keeps graph and map in step.
type Index struct {
	mu      sync.RWMutex
	dim     int
	path    string
	graph   *hnsw.Graph[int64]
	vectors map[int64][]float32
}

// New creates an empty index for vectors of the given dimension.
// path is where Save/Load persist the index; empty disables persistence.
func New(dim int, path string) *Index {
	return &Index{
		dim:     dim,
		path:    path,
		vectors: make(map[int64][]float32),
	}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = MaxNeighbors
	g.Ml = 1.0 / float64(MaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Dim returns the configured vector dimension.
func (ix *Index) Dim() int {
	return ix.dim
}

// Count returns the number of live vectors in the index.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Add inserts a vector under the given ID. The vector is copied. Adding an
// ID that is already present is an error; use Update to replace a vector.
func (ix *Index) Add(vec []float32, id int64) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("adding vector %d: got dim %d, index dim %d: %w", id, len(vec), ix.dim, ErrDimensionMismatch)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.vectors[id]; ok {
		return fmt.Errorf("adding vector %d: id already present", id)
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)

	if ix.graph == nil {
		ix.graph = newGraph()
	}
	ix.graph.Add(hnsw.MakeNode(id, stored))
	ix.vectors[id] = stored

	return nil
}

// Update replaces the vector stored under id. It is defined as remove
// (tolerating absence) followed by add; there is no in-place mutation path.
func (ix *Index) Update(vec []float32, id int64) error {
	ix.RemoveBatch([]int64{id})
	return ix.Add(vec, id)
}

// RemoveBatch deletes the given IDs from the graph and the map, returning
// the count actually removed. Absent IDs are not an error.
func (ix *Index) RemoveBatch(ids []int64) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, ok := ix.vectors[id]; ok {
			delete(ix.vectors, id)
			if ix.graph != nil {
				ix.graph.Delete(id)
			}
			removed++
		}
	}
	return removed
}

// Contains reports whether the index holds a live vector for id.
func (ix *Index) Contains(id int64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.vectors[id]
	return ok
}

// IDs returns the IDs of all live vectors, in no particular order.
func (ix *Index) IDs() []int64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]int64, 0, len(ix.vectors))
	for id := range ix.vectors {
		ids = append(ids, id)
	}
	return ids
}

// Search returns up to k results ordered by descending inner-product score.
// An empty index yields an empty result, not an error.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("search query: got dim %d, index dim %d: %w", len(query), ix.dim, ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil || len(ix.vectors) == 0 {
		return nil, nil
	}

	neighbors := ix.graph.Search(query, k)

	results := make([]Result, 0, len(neighbors))
	for _, n := range neighbors {
		vec, ok := ix.vectors[n.Key]
		if !ok {
			continue
		}
		results = append(results, Result{ID: n.Key, Score: dot(query, vec)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// persisted is the on-disk gob payload.
type persisted struct {
	Dim     int
	IDs     []int64
	Vectors [][]float32
}

// Save persists the live vectors to the configured path plus a .meta JSON
// sidecar used to validate the dimension on load.
func (ix *Index) Save() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.path == "" {
		return nil // persistence disabled
	}

	payload := persisted{Dim: ix.dim}
	meta := Metadata{Dim: ix.dim, Count: len(ix.vectors), Version: metadataVersion}
	for id, vec := range ix.vectors {
		payload.IDs = append(payload.IDs, id)
		payload.Vectors = append(payload.Vectors, vec)
		if id > meta.MaxID {
			meta.MaxID = id
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := os.WriteFile(ix.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing index file: %w", err)
	}

	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling index metadata: %w", err)
	}
	if err := os.WriteFile(ix.path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	return nil
}

// Load restores the index from the configured path, rebuilding the graph
// from the persisted vectors. A missing file leaves the index empty. If the
// persisted dimension disagrees with the configured one the files are
// discarded, the index stays empty, and ErrDimensionMismatch is returned so
// the caller can log the rebuild.
func (ix *Index) Load() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.path == "" {
		return nil
	}

	if _, err := os.Stat(ix.path); os.IsNotExist(err) {
		return nil // no index file yet, start empty
	}

	if metaData, err := os.ReadFile(ix.path + ".meta"); err == nil {
		var meta Metadata
		if err := json.Unmarshal(metaData, &meta); err == nil && meta.Dim != ix.dim {
			return ix.discardLocked(meta.Dim)
		}
	}

	data, err := os.ReadFile(ix.path)
	if err != nil {
		return fmt.Errorf("reading index file: %w", err)
	}

	var payload persisted
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return fmt.Errorf("decoding index file: %w", err)
	}
	if payload.Dim != ix.dim {
		return ix.discardLocked(payload.Dim)
	}

	ix.vectors = make(map[int64][]float32, len(payload.IDs))
	ix.graph = nil
	if len(payload.IDs) > 0 {
		ix.graph = newGraph()
	}
	for i, id := range payload.IDs {
		vec := payload.Vectors[i]
		if len(vec) != ix.dim {
			continue
		}
		ix.graph.Add(hnsw.MakeNode(id, vec))
		ix.vectors[id] = vec
	}

	return nil
}

// discardLocked removes incompatible persisted files and resets the index.
func (ix *Index) discardLocked(foundDim int) error {
	_ = os.Remove(ix.path)
	_ = os.Remove(ix.path + ".meta")
	ix.vectors = make(map[int64][]float32)
	ix.graph = nil
	return fmt.Errorf("persisted index has dim %d, configured %d, rebuilding empty: %w", foundDim, ix.dim, ErrDimensionMismatch)
}
