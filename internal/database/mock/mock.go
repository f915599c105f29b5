// Package mock provides an in-memory implementation of the database
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vhruby/smart-album/internal/database"
)

// Store is an in-memory database.Store. The exported *Error fields inject
// failures into the matching methods.
type Store struct {
	mu       sync.RWMutex
	images   map[int64]*database.StoredImage
	faces    map[int64]*database.StoredFace
	clusters map[int64]*database.FaceCluster

	nextImageID   int64
	nextFaceID    int64
	nextClusterID int64

	// Error injection
	GetImageError      error
	ListImagesError    error
	InsertImageError   error
	AssignVectorError  error
	UpdateError        error
	DeleteImageError   error
	InsertFaceError    error
	GetFaceError       error
	AssignClusterError error
	CreateClusterError error
	GetClusterError    error
	ListClustersError  error
	RenameClusterError error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		images:   make(map[int64]*database.StoredImage),
		faces:    make(map[int64]*database.StoredFace),
		clusters: make(map[int64]*database.FaceCluster),
	}
}

func copyImage(img *database.StoredImage) *database.StoredImage {
	clone := *img
	clone.Keywords = append([]string(nil), img.Keywords...)
	clone.Tags = append([]string(nil), img.Tags...)
	if img.Attributes != nil {
		clone.Attributes = make(map[string]string, len(img.Attributes))
		for k, v := range img.Attributes {
			clone.Attributes[k] = v
		}
	}
	if img.VectorID != nil {
		v := *img.VectorID
		clone.VectorID = &v
	}
	clone.VisualEmbedding = append([]float32(nil), img.VisualEmbedding...)
	return &clone
}

func copyFace(face *database.StoredFace) *database.StoredFace {
	clone := *face
	clone.BBox = append([]float64(nil), face.BBox...)
	clone.Embedding = append([]float32(nil), face.Embedding...)
	return &clone
}

// GetImage retrieves an image by ID.
func (m *Store) GetImage(ctx context.Context, id int64) (*database.StoredImage, error) {
	if m.GetImageError != nil {
		return nil, m.GetImageError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[id]
	if !ok {
		return nil, database.NewNotFoundError("image", id)
	}
	return copyImage(img), nil
}

// GetImageByVectorID retrieves the image whose vector ID matches.
func (m *Store) GetImageByVectorID(ctx context.Context, vectorID int64) (*database.StoredImage, error) {
	if m.GetImageError != nil {
		return nil, m.GetImageError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, img := range m.images {
		if img.VectorID != nil && *img.VectorID == vectorID {
			return copyImage(img), nil
		}
	}
	return nil, database.NewNotFoundError("image", vectorID)
}

// GetImages retrieves the given IDs; absent IDs are silently skipped.
func (m *Store) GetImages(ctx context.Context, ids []int64) ([]database.StoredImage, error) {
	if m.GetImageError != nil {
		return nil, m.GetImageError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var images []database.StoredImage
	for _, id := range ids {
		if img, ok := m.images[id]; ok {
			images = append(images, *copyImage(img))
		}
	}
	return images, nil
}

// ListImages returns one page of images, newest first, plus the total count.
func (m *Store) ListImages(ctx context.Context, limit, offset int) ([]database.StoredImage, int, error) {
	if m.ListImagesError != nil {
		return nil, 0, m.ListImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var images []database.StoredImage
	for _, img := range m.images {
		images = append(images, *copyImage(img))
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].UploadedAt.Equal(images[j].UploadedAt) {
			return images[i].ID > images[j].ID
		}
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})
	total := len(images)
	if limit > 0 {
		if offset >= len(images) {
			return nil, total, nil
		}
		images = images[offset:]
		if len(images) > limit {
			images = images[:limit]
		}
	}
	return images, total, nil
}

// ListPendingEnrichment returns up to limit images the enrichment step has
// not run for yet, oldest first.
func (m *Store) ListPendingEnrichment(ctx context.Context, limit int) ([]database.StoredImage, error) {
	if m.ListImagesError != nil {
		return nil, m.ListImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var images []database.StoredImage
	for _, img := range m.images {
		if !img.IsEnriched {
			images = append(images, *copyImage(img))
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

// ListVisualEmbeddings returns (id, visual embedding) pairs.
func (m *Store) ListVisualEmbeddings(ctx context.Context) ([]database.StoredImage, error) {
	if m.ListImagesError != nil {
		return nil, m.ListImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var images []database.StoredImage
	for _, img := range m.images {
		if len(img.VisualEmbedding) == 0 {
			continue
		}
		row := database.StoredImage{
			ID:              img.ID,
			VisualEmbedding: append([]float32(nil), img.VisualEmbedding...),
		}
		if img.VectorID != nil {
			v := *img.VectorID
			row.VectorID = &v
		}
		images = append(images, row)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images, nil
}

// ListIndexedIDs returns the vector IDs of all indexed images.
func (m *Store) ListIndexedIDs(ctx context.Context) ([]int64, error) {
	if m.ListImagesError != nil {
		return nil, m.ListImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []int64
	for _, img := range m.images {
		if img.VectorID != nil {
			ids = append(ids, *img.VectorID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CountImages returns the total number of image rows.
func (m *Store) CountImages(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images), nil
}

// InsertImage stores a new image row and returns the assigned ID. A file
// path that is already stored violates the uniqueness constraint.
func (m *Store) InsertImage(ctx context.Context, img *database.StoredImage) (int64, error) {
	if m.InsertImageError != nil {
		return 0, m.InsertImageError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.images {
		if existing.FilePath == img.FilePath {
			return 0, database.NewIntegrityError("image path already stored")
		}
	}
	m.nextImageID++
	clone := copyImage(img)
	clone.ID = m.nextImageID
	clone.VectorID = nil
	if clone.UploadedAt.IsZero() {
		clone.UploadedAt = time.Now()
	}
	m.images[clone.ID] = clone
	return clone.ID, nil
}

// AssignVectorID records the image's vector ID.
func (m *Store) AssignVectorID(ctx context.Context, id, vectorID int64) error {
	if m.AssignVectorError != nil {
		return m.AssignVectorError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return database.NewNotFoundError("image", id)
	}
	v := vectorID
	img.VectorID = &v
	return nil
}

// UpdateEnrichment stores the description and keywords and marks the image
// enriched, even when both are empty.
func (m *Store) UpdateEnrichment(ctx context.Context, id int64, description string, keywords []string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return database.NewNotFoundError("image", id)
	}
	img.Description = description
	img.Keywords = append([]string(nil), keywords...)
	img.IsEnriched = true
	return nil
}

// UpdateTags replaces the image's tag list.
func (m *Store) UpdateTags(ctx context.Context, id int64, tags []string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return database.NewNotFoundError("image", id)
	}
	img.Tags = append([]string(nil), tags...)
	return nil
}

// UpdateAttributes replaces the image's attribute map.
func (m *Store) UpdateAttributes(ctx context.Context, id int64, attrs map[string]string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return database.NewNotFoundError("image", id)
	}
	img.Attributes = make(map[string]string, len(attrs))
	for k, v := range attrs {
		img.Attributes[k] = v
	}
	return nil
}

// DeleteImage removes the row and cascades to its faces, returning the
// deleted face IDs.
func (m *Store) DeleteImage(ctx context.Context, id int64) ([]int64, error) {
	if m.DeleteImageError != nil {
		return nil, m.DeleteImageError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.images[id]; !ok {
		return nil, database.NewNotFoundError("image", id)
	}
	delete(m.images, id)

	var faceIDs []int64
	for faceID, face := range m.faces {
		if face.ImageID == id {
			faceIDs = append(faceIDs, faceID)
			delete(m.faces, faceID)
		}
	}
	sort.Slice(faceIDs, func(i, j int) bool { return faceIDs[i] < faceIDs[j] })
	return faceIDs, nil
}

// GetFace retrieves a face by ID.
func (m *Store) GetFace(ctx context.Context, id int64) (*database.StoredFace, error) {
	if m.GetFaceError != nil {
		return nil, m.GetFaceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	face, ok := m.faces[id]
	if !ok {
		return nil, database.NewNotFoundError("face", id)
	}
	return copyFace(face), nil
}

// GetFacesByImage returns all faces detected in an image.
func (m *Store) GetFacesByImage(ctx context.Context, imageID int64) ([]database.StoredFace, error) {
	if m.GetFaceError != nil {
		return nil, m.GetFaceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var faces []database.StoredFace
	for _, face := range m.faces {
		if face.ImageID == imageID {
			faces = append(faces, *copyFace(face))
		}
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].ID < faces[j].ID })
	return faces, nil
}

// GetFacesByCluster returns all faces assigned to a cluster.
func (m *Store) GetFacesByCluster(ctx context.Context, clusterID int64) ([]database.StoredFace, error) {
	if m.GetFaceError != nil {
		return nil, m.GetFaceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var faces []database.StoredFace
	for _, face := range m.faces {
		if face.ClusterID == clusterID {
			faces = append(faces, *copyFace(face))
		}
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].ID < faces[j].ID })
	return faces, nil
}

// ImagesByCluster returns the distinct images that contain a face from the
// cluster, newest first.
func (m *Store) ImagesByCluster(ctx context.Context, clusterID int64) ([]database.StoredImage, error) {
	if m.GetFaceError != nil {
		return nil, m.GetFaceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[int64]struct{})
	var images []database.StoredImage
	for _, face := range m.faces {
		if face.ClusterID != clusterID {
			continue
		}
		if _, dup := seen[face.ImageID]; dup {
			continue
		}
		seen[face.ImageID] = struct{}{}
		if img, ok := m.images[face.ImageID]; ok {
			images = append(images, *copyImage(img))
		}
	}
	sort.Slice(images, func(i, j int) bool {
		if images[i].UploadedAt.Equal(images[j].UploadedAt) {
			return images[i].ID > images[j].ID
		}
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})
	return images, nil
}

// CountFaces returns the total number of face rows.
func (m *Store) CountFaces(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.faces), nil
}

// InsertFace stores a face row and returns its ID.
func (m *Store) InsertFace(ctx context.Context, face *database.StoredFace) (int64, error) {
	if m.InsertFaceError != nil {
		return 0, m.InsertFaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextFaceID++
	clone := copyFace(face)
	clone.ID = m.nextFaceID
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	m.faces[clone.ID] = clone
	return clone.ID, nil
}

// AssignCluster moves a face to the given cluster.
func (m *Store) AssignCluster(ctx context.Context, faceID, clusterID int64) error {
	if m.AssignClusterError != nil {
		return m.AssignClusterError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	face, ok := m.faces[faceID]
	if !ok {
		return database.NewNotFoundError("face", faceID)
	}
	face.ClusterID = clusterID
	return nil
}

// DeleteFace removes a single face row.
func (m *Store) DeleteFace(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.faces[id]; !ok {
		return database.NewNotFoundError("face", id)
	}
	delete(m.faces, id)
	return nil
}

// GetCluster retrieves a cluster by ID with its face count.
func (m *Store) GetCluster(ctx context.Context, id int64) (*database.FaceCluster, error) {
	if m.GetClusterError != nil {
		return nil, m.GetClusterError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cluster, ok := m.clusters[id]
	if !ok {
		return nil, database.NewNotFoundError("cluster", id)
	}
	clone := *cluster
	clone.FaceCount = m.faceCountLocked(id)
	return &clone, nil
}

func (m *Store) faceCountLocked(clusterID int64) int {
	count := 0
	for _, face := range m.faces {
		if face.ClusterID == clusterID {
			count++
		}
	}
	return count
}

// ListClusters returns all clusters with face counts, largest first.
func (m *Store) ListClusters(ctx context.Context) ([]database.FaceCluster, error) {
	if m.ListClustersError != nil {
		return nil, m.ListClustersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var clusters []database.FaceCluster
	for id, cluster := range m.clusters {
		clone := *cluster
		clone.FaceCount = m.faceCountLocked(id)
		clusters = append(clusters, clone)
	}
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].FaceCount == clusters[j].FaceCount {
			return clusters[i].ID < clusters[j].ID
		}
		return clusters[i].FaceCount > clusters[j].FaceCount
	})
	return clusters, nil
}

// FindClustersByName returns clusters whose normalized name contains the
// normalized query.
func (m *Store) FindClustersByName(ctx context.Context, name string) ([]database.FaceCluster, error) {
	clusters, err := m.ListClusters(ctx)
	if err != nil {
		return nil, err
	}
	normalized := database.NormalizeClusterName(name)
	var matched []database.FaceCluster
	for _, c := range clusters {
		if strings.Contains(database.NormalizeClusterName(c.Name), normalized) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// CreateCluster stores a new cluster and returns its ID.
func (m *Store) CreateCluster(ctx context.Context, name string) (int64, error) {
	if m.CreateClusterError != nil {
		return 0, m.CreateClusterError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextClusterID++
	m.clusters[m.nextClusterID] = &database.FaceCluster{
		ID:        m.nextClusterID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	return m.nextClusterID, nil
}

// RenameCluster changes a cluster's display name.
func (m *Store) RenameCluster(ctx context.Context, id int64, name string) error {
	if m.RenameClusterError != nil {
		return m.RenameClusterError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cluster, ok := m.clusters[id]
	if !ok {
		return database.NewNotFoundError("cluster", id)
	}
	cluster.Name = name
	return nil
}

// SetClusterCover records the cluster's representative face.
func (m *Store) SetClusterCover(ctx context.Context, id, faceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cluster, ok := m.clusters[id]
	if !ok {
		return database.NewNotFoundError("cluster", id)
	}
	v := faceID
	cluster.CoverFaceID = &v
	return nil
}

// RemoveCluster deletes the cluster row without touching its faces. Used by
// tests to create dangling cluster references.
func (m *Store) RemoveCluster(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clusters, id)
}

// Verify interface compliance.
var _ database.Store = (*Store)(nil)
