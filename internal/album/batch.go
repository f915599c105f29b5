package album

import (
	"context"
	"fmt"
)

// BatchResult reports a batch operation that may partially succeed. IDs that
// failed are listed; the rest went through.
type BatchResult struct {
	Requested int     `json:"requested"`
	Succeeded int     `json:"succeeded"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}

// DeleteImages removes a set of photos: metadata rows (cascading to faces),
// both vector indexes and the files on disk. Each photo is handled in
// isolation, so one failure does not abort the rest.
func (s *Service) DeleteImages(ctx context.Context, ids []int64) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no image IDs given", ErrUnsupportedInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &BatchResult{Requested: len(ids)}
	for _, id := range ids {
		if err := s.deleteImageLocked(ctx, id); err != nil {
			s.log.Warn("delete failed", "image", id, "err", err)
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Succeeded++
	}

	s.saveIndexesQuiet()
	s.log.Info("batch delete done", "deleted", result.Succeeded, "failed", len(result.FailedIDs))
	return result, nil
}

// deleteImageLocked removes one photo everywhere. The row delete is the
// commit point: once it lands, index and file cleanup failures are logged
// but do not resurrect the photo. Caller holds s.mu.
func (s *Service) deleteImageLocked(ctx context.Context, id int64) error {
	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return err
	}

	faceIDs, err := s.store.DeleteImage(ctx, id)
	if err != nil {
		return err
	}

	if len(faceIDs) > 0 {
		s.faces.RemoveBatch(faceIDs)
	}
	if img.VectorID != nil {
		s.photos.RemoveBatch([]int64{*img.VectorID})
	}
	s.files.Remove(img.FilePath, img.ThumbnailPath)
	return nil
}

// TagImages replaces the tag set on each of the given photos. Per-photo
// isolation, same as DeleteImages.
func (s *Service) TagImages(ctx context.Context, ids []int64, tags []string) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no image IDs given", ErrUnsupportedInput)
	}
	if tags == nil {
		tags = []string{}
	}

	result := &BatchResult{Requested: len(ids)}
	for _, id := range ids {
		if err := s.store.UpdateTags(ctx, id, tags); err != nil {
			s.log.Warn("tagging failed", "image", id, "err", err)
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// UpdateAttributes replaces the free-form attribute map on one photo.
func (s *Service) UpdateAttributes(ctx context.Context, id int64, attrs map[string]string) error {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return s.store.UpdateAttributes(ctx, id, attrs)
}
