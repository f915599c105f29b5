package cmd

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vhruby/smart-album/internal/album"
	"github.com/vhruby/smart-album/internal/config"
	"github.com/vhruby/smart-album/internal/database/postgres"
	"github.com/vhruby/smart-album/internal/vecindex"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the vector index files from the database",
	Long: `Rebuild both vector index files from the metadata store.
Photo vectors are rebuilt from the stored visual embeddings; the semantic
part stays zero until the next enrichment. Face vectors are rebuilt from
the stored face embeddings.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	store, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing PostgreSQL: %w", err)
	}
	defer store.Close()

	photos := vecindex.New(cfg.Embedding.CompositeDim(), cfg.Index.PhotoIndexPath)
	faces := vecindex.New(cfg.Embedding.FaceDim, cfg.Index.FaceIndexPath)

	rows, err := store.ListVisualEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("listing visual embeddings: %w", err)
	}

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("Rebuilding photo index"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var skipped, faceCount int
	for _, row := range rows {
		bar.Add(1)

		if row.VectorID == nil || len(row.VisualEmbedding) != cfg.Embedding.VisualDim {
			skipped++
			continue
		}
		vec := album.CompositeVector(row.VisualEmbedding, nil, cfg.Embedding.SemanticDim)
		if err := photos.Add(vec, *row.VectorID); err != nil {
			return fmt.Errorf("indexing photo %d: %w", row.ID, err)
		}

		imageFaces, err := store.GetFacesByImage(ctx, row.ID)
		if err != nil {
			return fmt.Errorf("listing faces of photo %d: %w", row.ID, err)
		}
		for _, face := range imageFaces {
			if len(face.Embedding) != cfg.Embedding.FaceDim {
				skipped++
				continue
			}
			if err := faces.Add(face.Embedding, face.ID); err != nil {
				return fmt.Errorf("indexing face %d: %w", face.ID, err)
			}
			faceCount++
		}
	}

	if err := photos.Save(); err != nil {
		return fmt.Errorf("saving photo index: %w", err)
	}
	if err := faces.Save(); err != nil {
		return fmt.Errorf("saving face index: %w", err)
	}

	fmt.Printf("\nRebuilt %d photo vectors and %d face vectors", photos.Count(), faceCount)
	if skipped > 0 {
		fmt.Printf(" (%d rows skipped)", skipped)
	}
	fmt.Println()
	return nil
}
