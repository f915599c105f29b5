package album

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vhruby/smart-album/internal/database"
	"github.com/vhruby/smart-album/internal/vecindex"
)

// Image-to-image matches must be strictly above this cosine similarity.
const imageMatchThreshold = 0.6

// SearchHit pairs an image with its similarity score.
type SearchHit struct {
	Image database.StoredImage `json:"image"`
	Score float64              `json:"score"`
}

// SearchByText finds photos matching a natural-language query. With enhanced
// search on, the query is embedded in both the visual and the semantic space
// so enriched descriptions contribute; otherwise the semantic part is zeros
// and only the visual part matters.
func (s *Service) SearchByText(ctx context.Context, query string, k int) ([]SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrUnsupportedInput)
	}
	if k <= 0 {
		k = 20
	}

	visual, err := s.embedder.TextEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: text embedding: %w", ErrCollaboratorUnavailable, err)
	}
	if len(visual) != s.cfg.Embedding.VisualDim {
		return nil, fmt.Errorf("%w: text embedding has dim %d, expected %d",
			ErrEmbeddingFailure, len(visual), s.cfg.Embedding.VisualDim)
	}

	var semantic []float32
	if s.GetSettings().EnhancedSearch {
		semantic, err = s.embedder.SemanticEmbedding(ctx, query)
		if err != nil || len(semantic) != s.cfg.Embedding.SemanticDim {
			s.log.Warn("semantic query embedding failed, falling back to visual only", "err", err)
			semantic = nil
		}
	}

	results, err := s.photos.Search(composite(visual, semantic, s.cfg.Embedding.SemanticDim), k)
	if err != nil {
		return nil, fmt.Errorf("searching photo index: %w", err)
	}

	return s.resolveHits(ctx, results)
}

// SearchByImage finds photos visually similar to the given image. Matches
// must score strictly above the similarity threshold; the comparison runs
// over the stored visual embeddings so enrichment cannot skew it.
func (s *Service) SearchByImage(ctx context.Context, imageData []byte) ([]SearchHit, error) {
	query, err := s.embedder.ImageEmbedding(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: image embedding: %w", ErrCollaboratorUnavailable, err)
	}

	candidates, err := s.store.ListVisualEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing visual embeddings: %w", err)
	}

	type scored struct {
		id    int64
		score float64
	}
	var matches []scored
	for _, c := range candidates {
		if len(c.VisualEmbedding) != len(query) {
			continue
		}
		score := cosineSimilarity(query, c.VisualEmbedding)
		if score > imageMatchThreshold {
			matches = append(matches, scored{id: c.ID, score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	images, err := s.store.GetImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading matched images: %w", err)
	}

	byID := make(map[int64]database.StoredImage, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}
	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		if img, ok := byID[m.id]; ok {
			hits = append(hits, SearchHit{Image: img, Score: m.score})
		}
	}
	return hits, nil
}

// SearchByFace finds photos of the person whose face best matches the most
// prominent face in the given image. The resolution is read-only: a dangling
// face or cluster reference degrades to no match.
func (s *Service) SearchByFace(ctx context.Context, imageData []byte) ([]SearchHit, error) {
	detections, err := s.embedder.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: face detection: %w", ErrCollaboratorUnavailable, err)
	}
	if len(detections) == 0 {
		return nil, nil
	}

	// Query with the highest-quality detection.
	best := detections[0]
	for _, det := range detections[1:] {
		if det.DetScore > best.DetScore {
			best = det
		}
	}
	if len(best.Embedding) != s.cfg.Embedding.FaceDim {
		return nil, fmt.Errorf("%w: face embedding has dim %d, expected %d",
			ErrEmbeddingFailure, len(best.Embedding), s.cfg.Embedding.FaceDim)
	}

	results, err := s.faces.Search(normalize(best.Embedding), 1)
	if err != nil {
		return nil, fmt.Errorf("searching face index: %w", err)
	}
	if len(results) == 0 || float64(results[0].Score) <= s.cfg.Album.FaceMatchThreshold {
		return nil, nil
	}

	face, err := s.store.GetFace(ctx, results[0].ID)
	if errors.Is(err, database.ErrNotFound) {
		s.log.Warn("face index hit has no metadata row", "face", results[0].ID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	images, err := s.store.ImagesByCluster(ctx, face.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("loading cluster images: %w", err)
	}

	hits := make([]SearchHit, 0, len(images))
	for _, img := range images {
		hits = append(hits, SearchHit{Image: img, Score: float64(results[0].Score)})
	}
	return hits, nil
}

// SearchByPerson finds photos of a named person via fuzzy cluster-name
// matching (case- and diacritic-insensitive, dashes as spaces).
func (s *Service) SearchByPerson(ctx context.Context, name string) ([]database.StoredImage, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnsupportedInput)
	}

	clusters, err := s.store.FindClustersByName(ctx, name)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var images []database.StoredImage
	for _, cluster := range clusters {
		clusterImages, err := s.store.ImagesByCluster(ctx, cluster.ID)
		if err != nil {
			return nil, err
		}
		for _, img := range clusterImages {
			if _, dup := seen[img.ID]; dup {
				continue
			}
			seen[img.ID] = struct{}{}
			images = append(images, img)
		}
	}
	return images, nil
}

// resolveHits maps index results to stored images, skipping IDs the store no
// longer knows; the store is authoritative over the index.
func (s *Service) resolveHits(ctx context.Context, results []vecindex.Result) ([]SearchHit, error) {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	images, err := s.store.GetImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading matched images: %w", err)
	}

	byID := make(map[int64]database.StoredImage, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		img, ok := byID[r.ID]
		if !ok {
			s.log.Warn("index hit missing from store", "image", r.ID)
			continue
		}
		hits = append(hits, SearchHit{Image: img, Score: float64(r.Score)})
	}
	return hits, nil
}
