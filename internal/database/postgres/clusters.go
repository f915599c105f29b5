package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vhruby/smart-album/internal/database"
)

func scanCluster(row interface{ Scan(...any) error }) (*database.FaceCluster, error) {
	var cluster database.FaceCluster
	var cover sql.NullInt64
	if err := row.Scan(&cluster.ID, &cluster.Name, &cover, &cluster.CreatedAt, &cluster.FaceCount); err != nil {
		return nil, err
	}
	if cover.Valid {
		v := cover.Int64
		cluster.CoverFaceID = &v
	}
	return &cluster, nil
}

// GetCluster retrieves a cluster by ID.
func (s *Store) GetCluster(ctx context.Context, id int64) (*database.FaceCluster, error) {
	query := `
		SELECT c.id, c.name, c.cover_face_id, c.created_at, COUNT(f.id)
		FROM face_clusters c
		LEFT JOIN detected_faces f ON f.cluster_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`

	cluster, err := scanCluster(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.NewNotFoundError("cluster", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query cluster: %w", err)
	}
	return cluster, nil
}

// ListClusters returns all clusters with their face counts, largest first.
func (s *Store) ListClusters(ctx context.Context) ([]database.FaceCluster, error) {
	query := `
		SELECT c.id, c.name, c.cover_face_id, c.created_at, COUNT(f.id)
		FROM face_clusters c
		LEFT JOIN detected_faces f ON f.cluster_id = c.id
		GROUP BY c.id
		ORDER BY COUNT(f.id) DESC, c.id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer rows.Close()

	var clusters []database.FaceCluster
	for rows.Next() {
		cluster, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		clusters = append(clusters, *cluster)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clusters: %w", err)
	}
	return clusters, nil
}

// FindClustersByName returns clusters whose normalized name contains the
// normalized query, so "person" finds "Person 3". The comparison happens in
// Go so it can share the diacritics handling with the rest of the codebase;
// cluster counts stay small enough for that.
func (s *Store) FindClustersByName(ctx context.Context, name string) ([]database.FaceCluster, error) {
	clusters, err := s.ListClusters(ctx)
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
func (s *Store) CreateCluster(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, "INSERT INTO face_clusters (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create cluster: %w", err)
	}
	return id, nil
}

// RenameCluster changes a cluster's display name.
func (s *Store) RenameCluster(ctx context.Context, id int64, name string) error {
	result, err := s.pool.Exec(ctx, "UPDATE face_clusters SET name = $2 WHERE id = $1", id, name)
	if err != nil {
		return fmt.Errorf("rename cluster: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("cluster", id)
	}
	return nil
}

// SetClusterCover records the cluster's representative face.
func (s *Store) SetClusterCover(ctx context.Context, id, faceID int64) error {
	result, err := s.pool.Exec(ctx, "UPDATE face_clusters SET cover_face_id = $2 WHERE id = $1", id, faceID)
	if err != nil {
		return fmt.Errorf("set cluster cover: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("cluster", id)
	}
	return nil
}
