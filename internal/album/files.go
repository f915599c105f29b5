package album

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vhruby/smart-album/internal/imaging"
)

const thumbnailMaxSize = 512

// supportedExtensions is the upload allowlist.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// SupportedExtension reports whether the filename has an allowed image
// extension.
func SupportedExtension(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// FileStore manages the uploads/ and thumbnails/ trees under the data
// directory. Stored names are UUIDs so originals can never collide.
type FileStore struct {
	dataDir string
}

// NewFileStore creates the storage directories if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	for _, dir := range []string{
		filepath.Join(dataDir, "uploads"),
		filepath.Join(dataDir, "thumbnails"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return &FileStore{dataDir: dataDir}, nil
}

// UploadsDir returns the directory originals are stored in.
func (fs *FileStore) UploadsDir() string {
	return filepath.Join(fs.dataDir, "uploads")
}

// ThumbnailsDir returns the directory thumbnails are stored in.
func (fs *FileStore) ThumbnailsDir() string {
	return filepath.Join(fs.dataDir, "thumbnails")
}

// SaveOriginal writes the uploaded bytes under a fresh UUID name, keeping
// the original extension. Returns the stored filename and its path.
func (fs *FileStore) SaveOriginal(originalName string, data []byte) (filename, path string, err error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	filename = uuid.NewString() + ext
	path = filepath.Join(fs.UploadsDir(), filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", "", fmt.Errorf("writing upload: %w", err)
	}
	return filename, path, nil
}

// SaveThumbnail renders and writes a JPEG thumbnail for the stored file.
func (fs *FileStore) SaveThumbnail(filename string, data []byte) (string, error) {
	thumb, err := imaging.Resize(data, thumbnailMaxSize)
	if err != nil {
		return "", fmt.Errorf("rendering thumbnail: %w", err)
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	path := filepath.Join(fs.ThumbnailsDir(), base+".jpg")
	if err := os.WriteFile(path, thumb, 0644); err != nil {
		return "", fmt.Errorf("writing thumbnail: %w", err)
	}
	return path, nil
}

// Remove deletes the given paths, ignoring missing files.
func (fs *FileStore) Remove(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}
