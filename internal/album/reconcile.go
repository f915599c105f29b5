package album

import (
	"context"
	"fmt"
)

// ReconcileReport summarizes the repairs a reconcile pass made.
type ReconcileReport struct {
	OrphanPhotoVectors int `json:"orphan_photo_vectors"`
	OrphanFaceVectors  int `json:"orphan_face_vectors"`
	ReindexedPhotos    int `json:"reindexed_photos"`
}

// Reconcile repairs drift between the metadata store and the vector indexes.
// The store is authoritative: index entries without a row are dropped, and
// rows whose vector is missing from the index are re-added from their stored
// visual embedding (semantic part zeroed until the next enrichment).
func (s *Service) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &ReconcileReport{}

	indexed, err := s.store.ListIndexedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing indexed IDs: %w", err)
	}
	known := make(map[int64]struct{}, len(indexed))
	for _, id := range indexed {
		known[id] = struct{}{}
	}

	var orphans []int64
	for _, id := range s.photos.IDs() {
		if _, ok := known[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		n := s.photos.RemoveBatch(orphans)
		report.OrphanPhotoVectors = n
		s.log.Info("removed orphan photo vectors", "count", n)
	}

	// Rows the index lost, e.g. after an index file was discarded on a
	// dimension change.
	inIndex := make(map[int64]struct{})
	for _, id := range s.photos.IDs() {
		inIndex[id] = struct{}{}
	}
	embeddings, err := s.store.ListVisualEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing visual embeddings: %w", err)
	}
	for _, row := range embeddings {
		if row.VectorID == nil {
			continue
		}
		if _, ok := inIndex[*row.VectorID]; ok {
			continue
		}
		if len(row.VisualEmbedding) != s.cfg.Embedding.VisualDim {
			s.log.Warn("stored embedding has wrong dim, skipping",
				"image", row.ID, "dim", len(row.VisualEmbedding))
			continue
		}
		if err := s.photos.Add(composite(row.VisualEmbedding, nil, s.cfg.Embedding.SemanticDim), *row.VectorID); err != nil {
			return nil, fmt.Errorf("re-indexing photo %d: %w", row.ID, err)
		}
		report.ReindexedPhotos++
	}
	if report.ReindexedPhotos > 0 {
		s.log.Info("re-indexed photos from stored embeddings", "count", report.ReindexedPhotos)
	}

	faceRows, err := s.store.CountFaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting faces: %w", err)
	}
	if s.faces.Count() != faceRows {
		var faceOrphans []int64
		for _, id := range s.faces.IDs() {
			if _, err := s.store.GetFace(ctx, id); err != nil {
				faceOrphans = append(faceOrphans, id)
			}
		}
		if len(faceOrphans) > 0 {
			n := s.faces.RemoveBatch(faceOrphans)
			report.OrphanFaceVectors = n
			s.log.Info("removed orphan face vectors", "count", n)
		}
	}

	s.saveIndexesQuiet()
	return report, nil
}
