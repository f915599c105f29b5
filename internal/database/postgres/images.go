package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/vhruby/smart-album/internal/database"
)

// Postgres error classes worth translating into typed errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// constraintViolated reports whether err is a unique or foreign-key
// violation; those surface to callers as IntegrityError.
func constraintViolated(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqUniqueViolation || pqErr.Code == pqForeignKeyViolation
}

// Keywords, tags and attributes live in TEXT columns as JSON; they are
// encoded and decoded only at this boundary.

func encodeStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return string(data)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func encodeAttrs(attrs map[string]string) string {
	if attrs == nil {
		attrs = map[string]string{}
	}
	data, _ := json.Marshal(attrs)
	return string(data)
}

func decodeAttrs(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var attrs map[string]string
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil
	}
	return attrs
}

const imageColumns = `
	id, filename, original_filename, file_path, thumbnail_path,
	description, keywords, tags, attributes, is_enriched, vector_id, uploaded_at
`

func scanImage(row interface{ Scan(...any) error }) (*database.StoredImage, error) {
	var img database.StoredImage
	var keywords, tags, attrs string
	var vectorID sql.NullInt64

	err := row.Scan(
		&img.ID,
		&img.Filename,
		&img.OriginalFilename,
		&img.FilePath,
		&img.ThumbnailPath,
		&img.Description,
		&keywords,
		&tags,
		&attrs,
		&img.IsEnriched,
		&vectorID,
		&img.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	img.Keywords = decodeStrings(keywords)
	img.Tags = decodeStrings(tags)
	img.Attributes = decodeAttrs(attrs)
	if vectorID.Valid {
		v := vectorID.Int64
		img.VectorID = &v
	}
	return &img, nil
}

// GetImage retrieves an image by ID including its visual embedding.
func (s *Store) GetImage(ctx context.Context, id int64) (*database.StoredImage, error) {
	query := `
		SELECT ` + imageColumns + `, visual_embedding
		FROM images
		WHERE id = $1
	`

	var img database.StoredImage
	var keywords, tags, attrs string
	var vectorID sql.NullInt64
	var vec sql.Null[pgvector.Vector]

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&img.ID,
		&img.Filename,
		&img.OriginalFilename,
		&img.FilePath,
		&img.ThumbnailPath,
		&img.Description,
		&keywords,
		&tags,
		&attrs,
		&img.IsEnriched,
		&vectorID,
		&img.UploadedAt,
		&vec,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.NewNotFoundError("image", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query image: %w", err)
	}

	img.Keywords = decodeStrings(keywords)
	img.Tags = decodeStrings(tags)
	img.Attributes = decodeAttrs(attrs)
	if vectorID.Valid {
		v := vectorID.Int64
		img.VectorID = &v
	}
	if vec.Valid {
		img.VisualEmbedding = vec.V.Slice()
	}
	return &img, nil
}

// GetImageByVectorID retrieves the image whose vector ID matches.
func (s *Store) GetImageByVectorID(ctx context.Context, vectorID int64) (*database.StoredImage, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE vector_id = $1
	`

	img, err := scanImage(s.pool.QueryRow(ctx, query, vectorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.NewNotFoundError("image", vectorID)
	}
	if err != nil {
		return nil, fmt.Errorf("query image by vector ID: %w", err)
	}
	return img, nil
}

// GetImages retrieves the given IDs; absent IDs are silently skipped.
func (s *Store) GetImages(ctx context.Context, ids []int64) ([]database.StoredImage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE id = ANY($1)
		ORDER BY uploaded_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query images by IDs: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

// ListImages returns one page of images ordered by upload time, newest
// first, plus the total row count.
func (s *Store) ListImages(ctx context.Context, limit, offset int) ([]database.StoredImage, int, error) {
	total, err := s.CountImages(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + imageColumns + `
		FROM images
		ORDER BY uploaded_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query images: %w", err)
	}
	defer rows.Close()

	images, err := collectImages(rows)
	if err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

// ListPendingEnrichment returns up to limit images the enrichment step has
// not run for yet, oldest first.
func (s *Store) ListPendingEnrichment(ctx context.Context, limit int) ([]database.StoredImage, error) {
	query := `
		SELECT ` + imageColumns + `
		FROM images
		WHERE NOT is_enriched
		ORDER BY id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending enrichment: %w", err)
	}
	defer rows.Close()

	return collectImages(rows)
}

func collectImages(rows *sql.Rows) ([]database.StoredImage, error) {
	var images []database.StoredImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}

// ListVisualEmbeddings returns (id, vector id, visual embedding) for every
// image that has a stored embedding.
func (s *Store) ListVisualEmbeddings(ctx context.Context) ([]database.StoredImage, error) {
	query := `
		SELECT id, vector_id, visual_embedding
		FROM images
		WHERE visual_embedding IS NOT NULL
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query visual embeddings: %w", err)
	}
	defer rows.Close()

	var images []database.StoredImage
	for rows.Next() {
		var img database.StoredImage
		var vectorID sql.NullInt64
		var vec pgvector.Vector
		if err := rows.Scan(&img.ID, &vectorID, &vec); err != nil {
			return nil, fmt.Errorf("scan visual embedding: %w", err)
		}
		if vectorID.Valid {
			img.VectorID = &vectorID.Int64
		}
		img.VisualEmbedding = vec.Slice()
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visual embeddings: %w", err)
	}
	return images, nil
}

// ListIndexedIDs returns the vector IDs of all indexed images.
func (s *Store) ListIndexedIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, "SELECT vector_id FROM images WHERE vector_id IS NOT NULL ORDER BY vector_id")
	if err != nil {
		return nil, fmt.Errorf("query indexed image IDs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan image ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image IDs: %w", err)
	}
	return ids, nil
}

// CountImages returns the total number of image rows.
func (s *Store) CountImages(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return count, nil
}

// InsertImage stores a new image row with a NULL vector ID and returns the
// assigned ID.
func (s *Store) InsertImage(ctx context.Context, img *database.StoredImage) (int64, error) {
	query := `
		INSERT INTO images (filename, original_filename, file_path, thumbnail_path,
			description, keywords, tags, attributes, visual_embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var embedding any
	if img.VisualEmbedding != nil {
		embedding = pgvector.NewVector(img.VisualEmbedding)
	}

	var id int64
	err := s.pool.QueryRow(ctx, query,
		img.Filename,
		img.OriginalFilename,
		img.FilePath,
		img.ThumbnailPath,
		img.Description,
		encodeStrings(img.Keywords),
		encodeStrings(img.Tags),
		encodeAttrs(img.Attributes),
		embedding,
	).Scan(&id)
	if constraintViolated(err) {
		return 0, database.NewIntegrityError(fmt.Sprintf("image path %q already stored", img.FilePath))
	}
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}

// AssignVectorID records the image's vector ID after the index add succeeded.
func (s *Store) AssignVectorID(ctx context.Context, id, vectorID int64) error {
	result, err := s.pool.Exec(ctx, "UPDATE images SET vector_id = $2 WHERE id = $1", id, vectorID)
	if constraintViolated(err) {
		return database.NewIntegrityError(fmt.Sprintf("vector ID %d already assigned", vectorID))
	}
	if err != nil {
		return fmt.Errorf("assign vector ID: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("image", id)
	}
	return nil
}

// UpdateEnrichment stores the description and keywords produced by the
// enrichment step and marks the image enriched. The flag is set even when
// both are empty; an empty answer from the provider is still an answer.
func (s *Store) UpdateEnrichment(ctx context.Context, id int64, description string, keywords []string) error {
	result, err := s.pool.Exec(ctx,
		"UPDATE images SET description = $2, keywords = $3, is_enriched = TRUE WHERE id = $1",
		id, description, encodeStrings(keywords))
	if err != nil {
		return fmt.Errorf("update enrichment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("image", id)
	}
	return nil
}

// UpdateTags replaces the image's tag list.
func (s *Store) UpdateTags(ctx context.Context, id int64, tags []string) error {
	result, err := s.pool.Exec(ctx, "UPDATE images SET tags = $2 WHERE id = $1", id, encodeStrings(tags))
	if err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("image", id)
	}
	return nil
}

// UpdateAttributes replaces the image's free-form attribute map.
func (s *Store) UpdateAttributes(ctx context.Context, id int64, attrs map[string]string) error {
	result, err := s.pool.Exec(ctx, "UPDATE images SET attributes = $2 WHERE id = $1", id, encodeAttrs(attrs))
	if err != nil {
		return fmt.Errorf("update attributes: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return database.NewNotFoundError("image", id)
	}
	return nil
}

// DeleteImage hard-deletes the row; detected faces cascade. The returned IDs
// are the deleted faces' vector IDs for index cleanup.
func (s *Store) DeleteImage(ctx context.Context, id int64) ([]int64, error) {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM detected_faces WHERE image_id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("query face IDs for image: %w", err)
	}

	var faceIDs []int64
	for rows.Next() {
		var faceID int64
		if err := rows.Scan(&faceID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan face ID: %w", err)
		}
		faceIDs = append(faceIDs, faceID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate face IDs: %w", err)
	}
	rows.Close()

	result, err := tx.ExecContext(ctx, "DELETE FROM images WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("delete image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, database.NewNotFoundError("image", id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit image delete: %w", err)
	}
	return faceIDs, nil
}
