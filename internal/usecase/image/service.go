package image

import (
	"context"
	"fmt"
	"io"

	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/pkg/storage"
)

// Upload is one file of an upload batch, already opened by the transport layer
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

// Service orchestrates image uploads and deletions against the blob storage
// and the metadata rows.
type Service struct {
	repo         domain.ImageRepository
	reviewRepo   domain.ReviewRepository
	storage      *storage.LocalStorage
	maxPerReview int
	logger       *logger.Logger
}

// NewService creates a new image service
func NewService(
	repo domain.ImageRepository,
	reviewRepo domain.ReviewRepository,
	store *storage.LocalStorage,
	maxPerReview int,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		reviewRepo:   reviewRepo,
		storage:      store,
		maxPerReview: maxPerReview,
		logger:       log,
	}
}

// Upload attaches a batch of files to a review. The whole batch is rejected
// up front when the existing count plus the batch would exceed the per-review
// cap; nothing is partially uploaded in that case. A file whose metadata
// insert fails is removed from storage again so no orphaned files remain.
func (s *Service) Upload(ctx context.Context, reviewID int64, uploads []Upload) ([]*domain.Image, error) {
	if _, err := s.reviewRepo.GetByID(ctx, reviewID); err != nil {
		return nil, err
	}

	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no files in upload", domain.ErrInvalidInput)
	}

	current, err := s.repo.CountByReviewID(ctx, reviewID)
	if err != nil {
		s.logger.Error("Failed to count review images", err)
		return nil, err
	}

	if current+len(uploads) > s.maxPerReview {
		return nil, fmt.Errorf("%w: review %d has %d of %d images",
			domain.ErrTooManyImages, reviewID, current, s.maxPerReview)
	}

	saved := make([]*domain.Image, 0, len(uploads))
	for _, up := range uploads {
		file, err := s.storage.Save(up.Reader, up.Filename, up.ContentType, reviewID)
		if err != nil {
			return nil, err
		}

		img := &domain.Image{
			ReviewID:     reviewID,
			FilePath:     file.Path,
			OriginalName: file.OriginalName,
			FileSize:     file.Size,
		}

		if err := s.repo.Create(ctx, img); err != nil {
			s.logger.Error("Failed to insert image row", err)
			if delErr := s.storage.Delete(file.Path); delErr != nil {
				s.logger.Warnf("Failed to clean up file %s after insert failure: %v", file.Path, delErr)
			}
			return nil, err
		}

		saved = append(saved, img)
	}

	s.logger.WithFields(map[string]interface{}{
		"review_id": reviewID,
		"uploaded":  len(saved),
	}).Info("Images uploaded successfully")

	return saved, nil
}

// Delete removes one image: the backing file first (idempotent, a failure is
// logged but does not block the row deletion), then the metadata row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("Failed to get image for deletion", err)
		}
		return err
	}

	if err := s.storage.Delete(img.FilePath); err != nil {
		s.logger.Warnf("Failed to delete image file %s: %v", img.FilePath, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete image row", err)
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"image_id":  id,
		"review_id": img.ReviewID,
	}).Info("Image deleted successfully")

	return nil
}
