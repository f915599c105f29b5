package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/vhruby/smart-album/internal/database"
)

const faceColumns = `
	id, image_id, cluster_id, bbox, det_score, embedding, created_at
`

func scanFace(row interface{ Scan(...any) error }) (*database.StoredFace, error) {
	var face database.StoredFace
	var bbox pq.Float64Array
	var vec sql.Null[pgvector.Vector]

	err := row.Scan(
		&face.ID,
		&face.ImageID,
		&face.ClusterID,
		&bbox,
		&face.DetScore,
		&vec,
		&face.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	face.BBox = []float64(bbox)
	if vec.Valid {
		face.Embedding = vec.V.Slice()
	}
	return &face, nil
}

// GetFace retrieves a face by ID.
func (s *Store) GetFace(ctx context.Context, id int64) (*database.StoredFace, error) {
	query := `SELECT ` + faceColumns + ` FROM detected_faces WHERE id = $1`

	face, err := scanFace(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.NewNotFoundError("face", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query face: %w", err)
	}
	return face, nil
}

// GetFacesByImage returns all faces detected in an image.
func (s *Store) GetFacesByImage(ctx context.Context, imageID int64) ([]database.StoredFace, error) {
	query := `SELECT ` + faceColumns + ` FROM detected_faces WHERE image_id = $1 ORDER BY id`

	rows, err := s.pool.Query(ctx, query, imageID)
	if err != nil {
		return nil, fmt.Errorf("query faces by image: %w", err)
	}
	defer rows.Close()

	return collectFaces(rows)
}

// GetFacesByCluster returns all faces assigned to a cluster.
func (s *Store) GetFacesByCluster(ctx context.Context, clusterID int64) ([]database.StoredFace, error) {
	query := `SELECT ` + faceColumns + ` FROM detected_faces WHERE cluster_id = $1 ORDER BY id`

	rows, err := s.pool.Query(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("query faces by cluster: %w", err)
	}
	defer rows.Close()

	return collectFaces(rows)
}

func collectFaces(rows *sql.Rows) ([]database.StoredFace, error) {
	var faces []database.StoredFace
	for rows.Next() {
		face, err := scanFace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, *face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}
	return faces, nil
}

// ImagesByCluster returns the distinct images that contain a face from the
// cluster, newest first.
func (s *Store) ImagesByCluster(ctx context.Context, clusterID int64) ([]database.StoredImage, error) {
	query := `
		SELECT DISTINCT i.id, i.filename, i.original_filename, i.file_path,
			i.thumbnail_path, i.description, i.keywords, i.tags, i.attributes,
			i.vector_id, i.uploaded_at
		FROM images i
		JOIN detected_faces f ON f.image_id = i.id
		WHERE f.cluster_id = $1
		ORDER BY i.uploaded_at DESC, i.id DESC
	`

	rows, err := s.pool.Query(ctx, query, clusterID)
	if err != nil {
		return nil, fmt.Errorf("query images by cluster: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

// CountFaces returns the total number of face rows.
func (s *Store) CountFaces(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM detected_faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

// InsertFace stores a face row and returns its ID.
func (s *Store) InsertFace(ctx context.Context, face *database.StoredFace) (int64, error) {
	query := `
		INSERT INTO detected_faces (image_id, cluster_id, bbox, det_score, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var embedding any
	if face.Embedding != nil {
		embedding = pgvector.NewVector(face.Embedding)
	}

	var id int64
	err := s.pool.QueryRow(ctx, query,
		face.ImageID,
		face.ClusterID,
		pq.Array(face.BBox),
		face.DetScore,
		embedding,
	).Scan(&id)
	if constraintViolated(err) {
		return 0, database.NewIntegrityError(fmt.Sprintf("face references missing image %d", face.ImageID))
	}
	if err != nil {
		return 0, fmt.Errorf("insert face: %w", err)
	}
	return id, nil
}

// AssignCluster moves a face to the given cluster.
func (s *Store) AssignCluster(ctx context.Context, faceID, clusterID int64) error {
	result, err := s.pool.Exec(ctx, "UPDATE detected_faces SET cluster_id = $2 WHERE id = $1", faceID, clusterID)
	if err != nil {
		return fmt.Errorf("assign cluster: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("face", faceID)
	}
	return nil
}

// DeleteFace removes a single face row.
func (s *Store) DeleteFace(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM detected_faces WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete face: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("face", id)
	}
	return nil
}
