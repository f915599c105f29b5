package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/config"
	"github.com/vhruby/smart-album/internal/database/postgres"
	"github.com/vhruby/smart-album/internal/describe"
	"github.com/vhruby/smart-album/internal/embedding"
	"github.com/vhruby/smart-album/internal/vecindex"
	"github.com/vhruby/smart-album/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the album web server",
	Long: `Start the Smart Album web server.
The server exposes the upload, search, cluster and enrichment API and
serves stored originals and thumbnails.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "smart-album",
	})
}

// loadIndex loads a persisted vector index, tolerating a missing file. A
// dimension change discards the stale file; the reconcile pass rebuilds the
// index from the store afterwards.
func loadIndex(logger *log.Logger, name string, dim int, path string) *vecindex.Index {
	ix := vecindex.New(dim, path)
	if err := ix.Load(); err != nil {
		if errors.Is(err, vecindex.ErrDimensionMismatch) {
			logger.Warn("persisted index has wrong dimension, starting empty",
				"index", name, "path", path)
		} else {
			logger.Warn("failed to load index, starting empty",
				"index", name, "path", path, "err", err)
		}
	}
	logger.Info("vector index ready", "index", name, "vectors", ix.Count(), "dim", dim)
	return ix
}

// buildService wires the full album service from configuration.
func buildService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*album.Service, *postgres.Store, error) {
	store, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing PostgreSQL: %w", err)
	}

	files, err := album.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initializing file storage: %w", err)
	}

	photos := loadIndex(logger, "photos", cfg.Embedding.CompositeDim(), cfg.Index.PhotoIndexPath)
	faces := loadIndex(logger, "faces", cfg.Embedding.FaceDim, cfg.Index.FaceIndexPath)

	embedder := embedding.NewClient(cfg.Embedding.URL)

	describer, err := describe.New(ctx, &cfg.Describe, cfg.Prompts.Describe)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initializing describe provider: %w", err)
	}
	if describer != nil {
		logger.Info("describe provider enabled", "provider", describer.Name())
	} else {
		logger.Info("describe provider disabled")
	}

	svc := album.New(cfg, logger, store, photos, faces, embedder, describer, files)
	return svc, store, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	svc, store, err := buildService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Album.ReconcileOnStart {
		report, err := svc.Reconcile(cmd.Context())
		if err != nil {
			return fmt.Errorf("reconciling indexes: %w", err)
		}
		logger.Info("reconcile finished",
			"orphan_photos", report.OrphanPhotoVectors,
			"orphan_faces", report.OrphanFaceVectors,
			"reindexed", report.ReindexedPhotos)
	}

	server := web.NewServer(cfg, logger, svc)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down")
		if err := svc.SaveIndexes(); err != nil {
			logger.Error("failed to save indexes on shutdown", "err", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during shutdown", "err", err)
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
