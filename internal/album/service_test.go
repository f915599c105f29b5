package album

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vhruby/smart-album/internal/config"
	"github.com/vhruby/smart-album/internal/database/mock"
	"github.com/vhruby/smart-album/internal/describe"
	"github.com/vhruby/smart-album/internal/embedding"
	"github.com/vhruby/smart-album/internal/vecindex"
)

// Test dimensions are kept small; the engine only cares that they are
// consistent with the config.
const (
	testVisualDim   = 4
	testSemanticDim = 2
	testFaceDim     = 4
)

// fakeEmbedder implements embedding.Provider with overridable functions.
// Unset functions return a fixed unit vector and no faces.
type fakeEmbedder struct {
	imageFn    func(data []byte) ([]float32, error)
	textFn     func(text string) ([]float32, error)
	semanticFn func(text string) ([]float32, error)
	facesFn    func(data []byte) ([]embedding.FaceDetection, error)
}

func (f *fakeEmbedder) ImageEmbedding(_ context.Context, data []byte) ([]float32, error) {
	if f.imageFn != nil {
		return f.imageFn(data)
	}
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeEmbedder) TextEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.textFn != nil {
		return f.textFn(text)
	}
	return []float32{1, 0, 0, 0}, nil
}

func (f *fakeEmbedder) SemanticEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.semanticFn != nil {
		return f.semanticFn(text)
	}
	return []float32{0.6, 0.8}, nil
}

func (f *fakeEmbedder) DetectFaces(_ context.Context, data []byte) ([]embedding.FaceDetection, error) {
	if f.facesFn != nil {
		return f.facesFn(data)
	}
	return nil, nil
}

// fakeDescriber implements describe.Provider. With block set, Describe waits
// until the channel is closed, which lets tests hold the worker mid-run.
type fakeDescriber struct {
	result *describe.Result
	err    error
	block  chan struct{}
	calls  int
}

func (f *fakeDescriber) Name() string { return "fake" }

func (f *fakeDescriber) Describe(context.Context, []byte) (*describe.Result, error) {
	f.calls++
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &describe.Result{Description: "a test photo", Keywords: []string{"test"}}, nil
}

func faceDet(emb []float32, score float64) embedding.FaceDetection {
	return embedding.FaceDetection{
		Dim:       len(emb),
		Embedding: emb,
		BBox:      []float64{0, 0, 10, 10},
		DetScore:  score,
	}
}

type testEnv struct {
	svc      *Service
	store    *mock.Store
	photos   *vecindex.Index
	facesIdx *vecindex.Index
	files    *FileStore
	embedder *fakeEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{
			VisualDim:   testVisualDim,
			SemanticDim: testSemanticDim,
			FaceDim:     testFaceDim,
		},
		Album: config.AlbumConfig{FaceMatchThreshold: 0.5},
	}

	store := mock.NewStore()
	photos := vecindex.New(cfg.Embedding.CompositeDim(), filepath.Join(dir, "photos.index"))
	faces := vecindex.New(cfg.Embedding.FaceDim, filepath.Join(dir, "faces.index"))
	files, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	embedder := &fakeEmbedder{}
	svc := New(cfg, log.New(io.Discard), store, photos, faces, embedder, nil, files)

	return &testEnv{
		svc:      svc,
		store:    store,
		photos:   photos,
		facesIdx: faces,
		files:    files,
		embedder: embedder,
	}
}

func TestRenameClusterEmptyName(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.RenameCluster(context.Background(), 1, "")
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Fatalf("expected ErrUnsupportedInput, got %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	if got := env.svc.GetSettings(); got.AutoDescribe || got.EnhancedSearch {
		t.Fatalf("unexpected initial settings: %+v", got)
	}

	env.svc.UpdateSettings(Settings{AutoDescribe: true, EnhancedSearch: true})
	got := env.svc.GetSettings()
	if !got.AutoDescribe || !got.EnhancedSearch {
		t.Fatalf("settings did not stick: %+v", got)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.facesFn = func([]byte) ([]embedding.FaceDetection, error) {
		return []embedding.FaceDetection{faceDet([]float32{1, 0, 0, 0}, 0.9)}, nil
	}

	if _, err := env.svc.Ingest(context.Background(), "a.jpg", []byte("one")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	stats, err := env.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Images != 1 || stats.Faces != 1 || stats.PhotoVectors != 1 || stats.FaceVectors != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Describe {
		t.Fatal("describe should be reported disabled")
	}
}
