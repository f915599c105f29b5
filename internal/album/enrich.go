package album

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vhruby/smart-album/internal/database"
)

// EnrichImage describes one photo and folds the semantic embedding into its
// composite vector. Already-enriched photos are returned as-is.
func (s *Service) EnrichImage(ctx context.Context, id int64) (*database.StoredImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if img.Enriched() {
		return img, nil
	}

	if err := s.enrichLocked(ctx, id, img.VisualEmbedding); err != nil {
		return nil, err
	}
	s.saveIndexesQuiet()

	return s.store.GetImage(ctx, id)
}

// enrichLocked runs the describe step for one image and updates its index
// vector. A semantic-embedding failure downgrades the semantic part to
// zeros; the description still lands in the store. Caller holds s.mu.
func (s *Service) enrichLocked(ctx context.Context, id int64, visual []float32) error {
	if s.describe == nil {
		return fmt.Errorf("%w: no describe provider configured", ErrNotReady)
	}
	if len(visual) == 0 {
		return fmt.Errorf("%w: image %d has no visual embedding", ErrNotReady, id)
	}

	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(img.FilePath)
	if err != nil {
		return fmt.Errorf("%w: reading original: %w", ErrEnrichmentFailure, err)
	}

	result, err := s.describe.Describe(ctx, data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEnrichmentFailure, err)
	}

	if err := s.store.UpdateEnrichment(ctx, id, result.Description, result.Keywords); err != nil {
		return fmt.Errorf("storing enrichment: %w", err)
	}

	var semantic []float32
	text := strings.TrimSpace(result.Description + " " + strings.Join(result.Keywords, " "))
	if text != "" {
		semantic, err = s.embedder.SemanticEmbedding(ctx, text)
		if err != nil || len(semantic) != s.cfg.Embedding.SemanticDim {
			s.log.Warn("semantic embedding failed, keeping zero semantic part", "image", id, "err", err)
			semantic = nil
		}
	}

	if err := s.photos.Update(composite(visual, semantic, s.cfg.Embedding.SemanticDim), id); err != nil {
		return fmt.Errorf("updating photo vector %d: %w", id, err)
	}
	return nil
}

// EnrichmentStatus is a snapshot of the background enrichment worker.
type EnrichmentStatus struct {
	Running   bool   `json:"running"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	CurrentID int64  `json:"current_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// GetEnrichmentStatus returns the current worker snapshot.
func (s *Service) GetEnrichmentStatus() EnrichmentStatus {
	s.enrichMu.Lock()
	defer s.enrichMu.Unlock()
	return s.enrichState
}

// StartEnrichment launches the background worker over all images that are
// missing a description. A second start while one is running is rejected.
func (s *Service) StartEnrichment(ctx context.Context) error {
	if s.describe == nil {
		return fmt.Errorf("%w: no describe provider configured", ErrNotReady)
	}

	pending, err := s.store.ListPendingEnrichment(ctx, 0)
	if err != nil {
		return fmt.Errorf("listing pending images: %w", err)
	}

	s.enrichMu.Lock()
	if s.enrichState.Running {
		s.enrichMu.Unlock()
		return ErrAlreadyRunning
	}
	s.enrichState = EnrichmentStatus{Running: true, Total: len(pending)}
	s.enrichStop = false
	s.enrichMu.Unlock()

	go s.runEnrichment(pending)
	return nil
}

// StopEnrichment asks the worker to stop after the item in flight.
func (s *Service) StopEnrichment() {
	s.enrichMu.Lock()
	defer s.enrichMu.Unlock()
	s.enrichStop = true
}

func (s *Service) runEnrichment(pending []database.StoredImage) {
	// The worker outlives the request that started it.
	ctx := context.Background()

	defer func() {
		s.enrichMu.Lock()
		s.enrichState.Running = false
		s.enrichState.CurrentID = 0
		s.enrichMu.Unlock()
		s.mu.Lock()
		s.saveIndexesQuiet()
		s.mu.Unlock()
	}()

	for _, img := range pending {
		s.enrichMu.Lock()
		if s.enrichStop {
			s.enrichMu.Unlock()
			s.log.Info("enrichment stopped",
				"processed", s.processedCount(), "total", len(pending))
			return
		}
		s.enrichState.CurrentID = img.ID
		s.enrichMu.Unlock()

		// List queries skip the embedding column; fetch the full row.
		s.mu.Lock()
		full, err := s.store.GetImage(ctx, img.ID)
		if err == nil {
			err = s.enrichLocked(ctx, img.ID, full.VisualEmbedding)
		}
		s.mu.Unlock()

		s.enrichMu.Lock()
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// Deleted mid-run; not a failure.
				s.enrichState.Total--
			} else {
				s.enrichState.Failed++
				s.enrichState.LastError = err.Error()
				s.log.Warn("enrichment failed", "image", img.ID, "err", err)
			}
		} else {
			s.enrichState.Processed++
		}
		s.enrichMu.Unlock()
	}

	s.log.Info("enrichment finished", "processed", s.processedCount(), "total", len(pending))
}

func (s *Service) processedCount() int {
	s.enrichMu.Lock()
	defer s.enrichMu.Unlock()
	return s.enrichState.Processed
}
