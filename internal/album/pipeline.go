package album

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vhruby/smart-album/internal/database"
)

// IngestResult reports what happened to one uploaded photo. VectorID always
// equals ImageID; it is reported separately because it is the key into the
// photo index.
type IngestResult struct {
	ImageID  int64  `json:"image_id"`
	VectorID int64  `json:"vector_id"`
	Filename string `json:"filename"`
	Faces    int    `json:"faces"`
	Enriched bool   `json:"enriched"`
}

// Ingest runs the upload pipeline for one photo: store the file, compute the
// visual embedding, insert the metadata row, register the composite vector,
// then (non-fatally) describe the photo and cluster its faces.
//
// The store is authoritative. The insert sequence is row -> vector ID ->
// index add; any failure after the row insert compensates by hard-deleting
// the row and removing the files, so a photo is never left in exactly one of
// the three stores.
func (s *Service) Ingest(ctx context.Context, originalName string, data []byte) (*IngestResult, error) {
	if !SupportedExtension(originalName) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, strings.ToLower(filepath.Ext(originalName)))
	}

	filename, filePath, err := s.files.SaveOriginal(originalName, data)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	// Thumbnail failure is not fatal; it also doubles as a decode check,
	// so log it.
	thumbPath, err := s.files.SaveThumbnail(filename, data)
	if err != nil {
		s.log.Warn("thumbnail failed", "file", originalName, "err", err)
		thumbPath = ""
	}

	removeFiles := func() { s.files.Remove(filePath, thumbPath) }

	visual, err := s.embedder.ImageEmbedding(ctx, data)
	if err != nil {
		removeFiles()
		return nil, fmt.Errorf("%w: visual embedding: %w", ErrEmbeddingFailure, err)
	}
	if len(visual) != s.cfg.Embedding.VisualDim {
		removeFiles()
		return nil, fmt.Errorf("%w: visual embedding has dim %d, expected %d",
			ErrEmbeddingFailure, len(visual), s.cfg.Embedding.VisualDim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.InsertImage(ctx, &database.StoredImage{
		Filename:         filename,
		OriginalFilename: originalName,
		FilePath:         filePath,
		ThumbnailPath:    thumbPath,
		VisualEmbedding:  visual,
	})
	if err != nil {
		removeFiles()
		return nil, fmt.Errorf("inserting image row: %w", err)
	}

	rollback := func() {
		if _, derr := s.store.DeleteImage(ctx, id); derr != nil {
			s.log.Error("rollback delete failed", "image", id, "err", derr)
		}
		removeFiles()
	}

	if err := s.store.AssignVectorID(ctx, id, id); err != nil {
		rollback()
		return nil, fmt.Errorf("assigning vector ID: %w", err)
	}

	if err := s.photos.Add(composite(visual, nil, s.cfg.Embedding.SemanticDim), id); err != nil {
		rollback()
		return nil, fmt.Errorf("indexing photo %d: %w", id, err)
	}

	result := &IngestResult{ImageID: id, VectorID: id, Filename: filename}

	// Beyond this point the photo exists and stays; enrichment and face
	// processing failures only degrade it.
	if s.describe != nil && s.GetSettings().AutoDescribe {
		if err := s.enrichLocked(ctx, id, visual); err != nil {
			s.log.Warn("enrichment failed during upload", "image", id, "err", err)
		} else {
			result.Enriched = true
		}
	}

	detections, err := s.embedder.DetectFaces(ctx, data)
	if err != nil {
		s.log.Warn("face detection failed", "image", id, "err", err)
	}
	for _, det := range detections {
		if err := s.processFaceLocked(ctx, id, det); err != nil {
			s.log.Warn("face processing failed", "image", id, "face", det.FaceIndex, "err", err)
			continue
		}
		result.Faces++
	}

	s.saveIndexesQuiet()
	s.log.Info("photo ingested", "image", id, "faces", result.Faces, "enriched", result.Enriched)
	return result, nil
}
