// Package album implements the album engine: the ingestion pipeline that
// keeps the metadata store and the vector indexes consistent, incremental
// face clustering, search, batch operations and background enrichment.
package album

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vhruby/smart-album/internal/config"
	"github.com/vhruby/smart-album/internal/database"
	"github.com/vhruby/smart-album/internal/describe"
	"github.com/vhruby/smart-album/internal/embedding"
	"github.com/vhruby/smart-album/internal/vecindex"
)

// Service is the album engine. All multi-step store+index sequences are
// serialized by mu; the indexes' own locks only protect single calls.
type Service struct {
	cfg      *config.Config
	log      *log.Logger
	store    database.Store
	photos   *vecindex.Index
	faces    *vecindex.Index
	embedder embedding.Provider
	describe describe.Provider // nil when describing is disabled
	files    *FileStore

	mu sync.Mutex

	enrichMu    sync.Mutex
	enrichState EnrichmentStatus
	enrichStop  bool

	settingsMu     sync.RWMutex
	autoDescribe   bool
	enhancedSearch bool
}

// New wires the album service together. The describe provider may be nil.
func New(
	cfg *config.Config,
	logger *log.Logger,
	store database.Store,
	photoIndex, faceIndex *vecindex.Index,
	embedder embedding.Provider,
	describer describe.Provider,
	files *FileStore,
) *Service {
	return &Service{
		cfg:            cfg,
		log:            logger,
		store:          store,
		photos:         photoIndex,
		faces:          faceIndex,
		embedder:       embedder,
		describe:       describer,
		files:          files,
		autoDescribe:   cfg.Album.AutoDescribe,
		enhancedSearch: cfg.Album.EnhancedSearch,
	}
}

// Settings is the runtime-togglable part of the album behavior.
type Settings struct {
	AutoDescribe   bool `json:"auto_describe"`
	EnhancedSearch bool `json:"enhanced_search"`
}

// GetSettings returns the current runtime settings.
func (s *Service) GetSettings() Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return Settings{AutoDescribe: s.autoDescribe, EnhancedSearch: s.enhancedSearch}
}

// UpdateSettings replaces the runtime settings.
func (s *Service) UpdateSettings(settings Settings) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	s.autoDescribe = settings.AutoDescribe
	s.enhancedSearch = settings.EnhancedSearch
}

// Stats is a lightweight health snapshot.
type Stats struct {
	Images       int  `json:"images"`
	Faces        int  `json:"faces"`
	PhotoVectors int  `json:"photo_vectors"`
	FaceVectors  int  `json:"face_vectors"`
	Describe     bool `json:"describe_enabled"`
}

// Stats reports store and index counts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	images, err := s.store.CountImages(ctx)
	if err != nil {
		return nil, err
	}
	faces, err := s.store.CountFaces(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Images:       images,
		Faces:        faces,
		PhotoVectors: s.photos.Count(),
		FaceVectors:  s.faces.Count(),
		Describe:     s.describe != nil,
	}, nil
}

// GetImage returns one image's metadata.
func (s *Service) GetImage(ctx context.Context, id int64) (*database.StoredImage, error) {
	return s.store.GetImage(ctx, id)
}

// ListImages returns one page of images plus the total count.
func (s *Service) ListImages(ctx context.Context, limit, offset int) ([]database.StoredImage, int, error) {
	return s.store.ListImages(ctx, limit, offset)
}

// ListClusters returns all face clusters with counts.
func (s *Service) ListClusters(ctx context.Context) ([]database.FaceCluster, error) {
	return s.store.ListClusters(ctx)
}

// RenameCluster changes a cluster's display name.
func (s *Service) RenameCluster(ctx context.Context, id int64, name string) error {
	if name == "" {
		return fmt.Errorf("%w: cluster name must not be empty", ErrUnsupportedInput)
	}
	return s.store.RenameCluster(ctx, id, name)
}

// SaveIndexes persists both vector indexes. Called on shutdown and after
// mutating operations.
func (s *Service) SaveIndexes() error {
	if err := s.photos.Save(); err != nil {
		return fmt.Errorf("saving photo index: %w", err)
	}
	if err := s.faces.Save(); err != nil {
		return fmt.Errorf("saving face index: %w", err)
	}
	return nil
}

// saveIndexesQuiet persists both indexes, logging instead of failing; index
// files are a cache of store + entries and rebuildable via Reconcile.
func (s *Service) saveIndexesQuiet() {
	if err := s.SaveIndexes(); err != nil {
		s.log.Warn("failed to persist vector indexes", "err", err)
	}
}
