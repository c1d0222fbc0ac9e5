package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/storefront-widgets/review-service/internal/domain"
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// SavedFile describes a stored image file. Path is relative to the storage
// root and is what gets persisted on the image row.
type SavedFile struct {
	Path         string
	OriginalName string
	Size         int64
}

// LocalStorage writes review image files under a single root directory,
// one subdirectory per review. The root is passed in explicitly; nothing
// here reads ambient configuration.
type LocalStorage struct {
	root    string
	maxSize int64
}

// NewLocalStorage creates a storage helper rooted at dir, ensuring it exists.
func NewLocalStorage(dir string, maxSize int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStorage{root: dir, maxSize: maxSize}, nil
}

// Root returns the storage root directory.
func (s *LocalStorage) Root() string {
	return s.root
}

// Save validates and writes one uploaded file for the given review.
// Validation: extension and declared content type in the image allow-lists,
// non-empty content, size at most maxSize. The stored name is a fresh UUID
// so uploads never collide.
func (s *LocalStorage) Save(r io.Reader, originalName, contentType string, reviewID int64) (*SavedFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: disallowed extension %q", domain.ErrInvalidFile, ext)
	}

	if _, ok := allowedContentTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: disallowed content type %q", domain.ErrInvalidFile, contentType)
	}

	// Read one byte past the limit so an oversized file is detected without
	// buffering all of it.
	content, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(content)) > s.maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidFile, s.maxSize)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidFile)
	}

	reviewDir := filepath.Join(s.root, reviewDirName(reviewID))
	if err := os.MkdirAll(reviewDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create review dir: %w", err)
	}

	name := uuid.New().String() + ext
	fullPath := filepath.Join(reviewDir, name)
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &SavedFile{
		Path:         reviewDirName(reviewID) + "/" + name,
		OriginalName: originalName,
		Size:         int64(len(content)),
	}, nil
}

// Delete removes a stored file by its relative path. A missing file is not
// an error.
func (s *LocalStorage) Delete(relPath string) error {
	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", relPath, err)
	}
	return nil
}

// DeleteReviewDir removes a review's entire image directory. A missing
// directory is not an error.
func (s *LocalStorage) DeleteReviewDir(reviewID int64) error {
	dir := filepath.Join(s.root, reviewDirName(reviewID))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete review dir %s: %w", dir, err)
	}
	return nil
}

func reviewDirName(reviewID int64) string {
	return fmt.Sprintf("review_%d", reviewID)
}
