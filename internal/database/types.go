// Package database defines the storage model for the album: image metadata,
// detected faces and face clusters, plus the repository interfaces the
// concrete backends implement.
package database

import (
	"time"
)

// StoredImage is the metadata row for one uploaded photo. VectorID is nil
// until the photo's composite embedding has been registered in the vector
// index; once assigned it always equals the image ID.
type StoredImage struct {
	ID               int64
	Filename         string // UUID-based name under uploads/
	OriginalFilename string
	FilePath         string
	ThumbnailPath    string
	Description      string
	Keywords         []string
	Tags             []string
	Attributes       map[string]string
	VectorID         *int64
	VisualEmbedding  []float32 // raw visual part, kept for image-to-image search
	IsEnriched       bool
	UploadedAt       time.Time
}

// Enriched reports whether the enrichment step has run for this image. The
// flag is set by UpdateEnrichment regardless of the description content: a
// provider legitimately returning empty text still counts as enriched.
func (img *StoredImage) Enriched() bool {
	return img.IsEnriched
}

// StoredFace is one detected face in an image. Its ID doubles as the face's
// vector ID in the face index. The image link cascades on delete; the cluster
// link is intentionally soft so a vanished cluster degrades instead of
// blocking face queries.
type StoredFace struct {
	ID        int64
	ImageID   int64
	ClusterID int64
	BBox      []float64 // [x1, y1, x2, y2] in raw pixel coordinates
	DetScore  float64
	Embedding []float32
	CreatedAt time.Time
}

// FaceCluster groups faces believed to belong to the same person.
type FaceCluster struct {
	ID          int64
	Name        string
	CoverFaceID *int64 // representative face, set when the cluster is created
	CreatedAt   time.Time

	// FaceCount is populated by list queries that join detected_faces.
	FaceCount int
}
