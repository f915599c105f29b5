package database

import (
	"context"
)

// ImageReader provides read-only access to image metadata.
type ImageReader interface {
	// GetImage retrieves an image by ID. Returns a NotFoundError if absent.
	GetImage(ctx context.Context, id int64) (*StoredImage, error)
	// GetImageByVectorID retrieves the image whose vector ID matches.
	GetImageByVectorID(ctx context.Context, vectorID int64) (*StoredImage, error)
	// GetImages retrieves the given IDs; absent IDs are silently skipped.
	GetImages(ctx context.Context, ids []int64) ([]StoredImage, error)
	// ListImages returns one page of images ordered by upload time, newest
	// first, plus the total row count. limit <= 0 returns everything.
	// Embeddings are not populated.
	ListImages(ctx context.Context, limit, offset int) ([]StoredImage, int, error)
	// ListPendingEnrichment returns up to limit images that have no
	// description yet, oldest first.
	ListPendingEnrichment(ctx context.Context, limit int) ([]StoredImage, error)
	// ListVisualEmbeddings returns (id, visual embedding) pairs for every
	// image that has one. Used by the image-to-image linear scan.
	ListVisualEmbeddings(ctx context.Context) ([]StoredImage, error)
	// ListIndexedIDs returns the IDs of all images with an assigned vector ID.
	ListIndexedIDs(ctx context.Context) ([]int64, error)
	// CountImages returns the total number of image rows.
	CountImages(ctx context.Context) (int, error)
}

// ImageWriter provides write access to image metadata.
type ImageWriter interface {
	ImageReader

	// InsertImage stores a new image row with a NULL vector ID and returns
	// the assigned ID.
	InsertImage(ctx context.Context, img *StoredImage) (int64, error)
	// AssignVectorID records the image's ID in the vector index. Called after
	// the index add succeeds; vectorID always equals the image ID.
	AssignVectorID(ctx context.Context, id, vectorID int64) error
	// UpdateEnrichment stores the description and keywords produced by the
	// enrichment step.
	UpdateEnrichment(ctx context.Context, id int64, description string, keywords []string) error
	// UpdateTags replaces the image's tag list.
	UpdateTags(ctx context.Context, id int64, tags []string) error
	// UpdateAttributes replaces the image's free-form attribute map.
	UpdateAttributes(ctx context.Context, id int64, attrs map[string]string) error
	// DeleteImage hard-deletes the row. Face rows cascade; the returned IDs
	// are the deleted faces' vector IDs for index cleanup. Deleting an absent
	// image returns a NotFoundError.
	DeleteImage(ctx context.Context, id int64) ([]int64, error)
}

// FaceReader provides read-only access to detected faces.
type FaceReader interface {
	// GetFace retrieves a face by ID. Returns a NotFoundError if absent.
	GetFace(ctx context.Context, id int64) (*StoredFace, error)
	// GetFacesByImage returns all faces detected in an image.
	GetFacesByImage(ctx context.Context, imageID int64) ([]StoredFace, error)
	// GetFacesByCluster returns all faces assigned to a cluster.
	GetFacesByCluster(ctx context.Context, clusterID int64) ([]StoredFace, error)
	// ImagesByCluster returns the distinct images that contain a face from
	// the cluster, newest first.
	ImagesByCluster(ctx context.Context, clusterID int64) ([]StoredImage, error)
	// CountFaces returns the total number of face rows.
	CountFaces(ctx context.Context) (int, error)
}

// FaceWriter provides write access to detected faces.
type FaceWriter interface {
	FaceReader

	// InsertFace stores a face row and returns its ID, which is also the
	// face's vector ID in the face index.
	InsertFace(ctx context.Context, face *StoredFace) (int64, error)
	// AssignCluster moves a face to the given cluster.
	AssignCluster(ctx context.Context, faceID, clusterID int64) error
	// DeleteFace removes a single face row. Used to compensate when the
	// face's index add fails after the row insert.
	DeleteFace(ctx context.Context, id int64) error
}

// ClusterReader provides read-only access to face clusters.
type ClusterReader interface {
	// GetCluster retrieves a cluster by ID. Returns a NotFoundError if absent.
	GetCluster(ctx context.Context, id int64) (*FaceCluster, error)
	// ListClusters returns all clusters with their face counts, largest
	// first.
	ListClusters(ctx context.Context) ([]FaceCluster, error)
	// FindClustersByName returns clusters whose normalized name matches the
	// normalized query (lowercase, no diacritics, dashes as spaces).
	FindClustersByName(ctx context.Context, name string) ([]FaceCluster, error)
}

// ClusterWriter provides write access to face clusters.
type ClusterWriter interface {
	ClusterReader

	// CreateCluster stores a new cluster and returns its ID.
	CreateCluster(ctx context.Context, name string) (int64, error)
	// RenameCluster changes a cluster's display name. Returns a
	// NotFoundError if the cluster does not exist.
	RenameCluster(ctx context.Context, id int64, name string) error
	// SetClusterCover records the cluster's representative face.
	SetClusterCover(ctx context.Context, id, faceID int64) error
}

// Store is the full metadata backend the album service works against.
type Store interface {
	ImageWriter
	FaceWriter
	ClusterWriter
}
