package album

import (
	"context"
	"errors"
	"fmt"

	"github.com/vhruby/smart-album/internal/database"
	"github.com/vhruby/smart-album/internal/embedding"
)

// processFaceLocked stores one detected face: resolve its cluster, insert
// the row, then register the face vector under the row's ID. An index add
// failure compensates by deleting the row. Caller holds s.mu.
func (s *Service) processFaceLocked(ctx context.Context, imageID int64, det embedding.FaceDetection) error {
	if len(det.Embedding) != s.cfg.Embedding.FaceDim {
		return fmt.Errorf("%w: face embedding has dim %d, expected %d",
			ErrEmbeddingFailure, len(det.Embedding), s.cfg.Embedding.FaceDim)
	}

	emb := normalize(det.Embedding)

	clusterID, created, err := s.resolveClusterLocked(ctx, emb)
	if err != nil {
		return err
	}

	faceID, err := s.store.InsertFace(ctx, &database.StoredFace{
		ImageID:   imageID,
		ClusterID: clusterID,
		BBox:      det.BBox,
		DetScore:  det.DetScore,
		Embedding: emb,
	})
	if err != nil {
		return fmt.Errorf("inserting face row: %w", err)
	}

	if err := s.faces.Add(emb, faceID); err != nil {
		if derr := s.store.DeleteFace(ctx, faceID); derr != nil {
			s.log.Error("face rollback failed", "face", faceID, "err", derr)
		}
		return fmt.Errorf("indexing face %d: %w", faceID, err)
	}

	if created {
		if err := s.store.SetClusterCover(ctx, clusterID, faceID); err != nil {
			s.log.Warn("setting cluster cover failed", "cluster", clusterID, "err", err)
		}
	}

	return nil
}

// resolveClusterLocked assigns a face embedding to a cluster: nearest stored
// face wins when its similarity is strictly above the threshold, otherwise a
// fresh cluster is created. A nearest face whose row or cluster has vanished
// is treated as no match rather than an error.
func (s *Service) resolveClusterLocked(ctx context.Context, emb []float32) (clusterID int64, created bool, err error) {
	results, err := s.faces.Search(emb, 1)
	if err != nil {
		return 0, false, fmt.Errorf("searching face index: %w", err)
	}

	if len(results) == 1 && float64(results[0].Score) > s.cfg.Album.FaceMatchThreshold {
		face, err := s.store.GetFace(ctx, results[0].ID)
		switch {
		case err == nil:
			if _, cerr := s.store.GetCluster(ctx, face.ClusterID); cerr == nil {
				return face.ClusterID, false, nil
			} else if !errors.Is(cerr, database.ErrNotFound) {
				return 0, false, cerr
			}
			s.log.Warn("face references missing cluster, starting new cluster",
				"face", face.ID, "cluster", face.ClusterID)
		case errors.Is(err, database.ErrNotFound):
			s.log.Warn("face index hit has no metadata row, starting new cluster",
				"face", results[0].ID)
		default:
			return 0, false, err
		}
	}

	clusterID, err = s.store.CreateCluster(ctx, "Person")
	if err != nil {
		return 0, false, fmt.Errorf("creating cluster: %w", err)
	}
	if err := s.store.RenameCluster(ctx, clusterID, fmt.Sprintf("Person %d", clusterID)); err != nil {
		s.log.Warn("naming new cluster failed", "cluster", clusterID, "err", err)
	}
	return clusterID, true, nil
}
