package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/pkg/storage"
	pkgvalidator "github.com/storefront-widgets/review-service/internal/pkg/validator"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ReviewEvent represents an event related to a review
type ReviewEvent struct {
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	ReviewID    int64     `json:"review_id"`
	ProductNo   string    `json:"product_no"`
	ProductName string    `json:"product_name"`
}

// Service handles staff review business logic
type Service struct {
	repo      domain.ReviewRepository
	imageRepo domain.ImageRepository
	storage   *storage.LocalStorage
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new review service
func NewService(
	repo domain.ReviewRepository,
	imageRepo domain.ImageRepository,
	store *storage.LocalStorage,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		imageRepo: imageRepo,
		storage:   store,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

// Create creates a new review
func (s *Service) Create(ctx context.Context, review *domain.Review) error {
	if err := s.validate.Struct(review); err != nil {
		s.logger.Error("Review validation failed", err)
		return domain.ErrInvalidInput
	}

	if err := s.repo.Create(ctx, review); err != nil {
		s.logger.Error("Failed to create review", err)
		return err
	}
	review.Images = []*domain.Image{}

	s.publishEvent(ctx, "review.created", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_no": review.ProductNo,
		"rating":     review.Rating,
	}).Info("Review created successfully")

	return nil
}

// GetByID retrieves a review by ID with its images attached
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == domain.ErrNotFound {
			s.logger.Debugf("Review not found: %d", id)
		} else {
			s.logger.Error("Failed to get review", err)
		}
		return nil, err
	}

	images, err := s.imageRepo.GetByReviewID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get review images", err)
		return nil, err
	}
	if images == nil {
		images = []*domain.Image{}
	}
	review.Images = images

	return review, nil
}

// List retrieves the staff listing, hidden reviews included
func (s *Service) List(ctx context.Context, filter domain.ReviewFilter, page, perPage int) ([]*domain.Review, int, error) {
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	reviews, total, err := s.repo.List(ctx, filter, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to list reviews", err)
		return nil, 0, err
	}

	if err := s.attachImages(ctx, reviews); err != nil {
		s.logger.Error("Failed to attach images to review list", err)
		return nil, 0, err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	return reviews, total, nil
}

// Update applies a partial update; only the supplied fields mutate. The
// updated review is returned with its images.
func (s *Service) Update(ctx context.Context, id int64, upd *domain.ReviewUpdate) (*domain.Review, error) {
	if err := s.validate.Struct(upd); err != nil {
		s.logger.Error("Review update validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	if upd.Empty() {
		return s.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, upd); err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("Failed to update review", err)
		}
		return nil, err
	}

	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "review.updated", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  review.ID,
		"product_no": review.ProductNo,
	}).Info("Review updated successfully")

	return review, nil
}

// SetVisibility sets the visibility flag. Toggling to the current state is a
// no-op on the flag but still bumps updated_at.
func (s *Service) SetVisibility(ctx context.Context, id int64, visible bool) (*domain.Review, error) {
	if err := s.repo.SetVisibility(ctx, id, visible); err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("Failed to set review visibility", err)
		}
		return nil, err
	}

	review, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, "review.updated", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  id,
		"is_visible": visible,
	}).Info("Review visibility updated")

	return review, nil
}

// Delete removes a review together with its image rows and backing files.
// A file that fails to delete is logged and skipped; the logical deletion
// still goes through.
func (s *Service) Delete(ctx context.Context, id int64) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("Failed to get review for deletion", err)
		}
		return err
	}

	images, err := s.imageRepo.GetByReviewID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get images for deletion", err)
		return err
	}

	for _, img := range images {
		if err := s.storage.Delete(img.FilePath); err != nil {
			s.logger.Warnf("Failed to delete image file %s: %v", img.FilePath, err)
		}
	}
	if err := s.storage.DeleteReviewDir(id); err != nil {
		s.logger.Warnf("Failed to delete image directory for review %d: %v", id, err)
	}

	// Image rows go with the review via ON DELETE CASCADE
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete review", err)
		return err
	}

	s.publishEvent(ctx, "review.deleted", review)

	s.logger.WithFields(map[string]interface{}{
		"review_id":  id,
		"product_no": review.ProductNo,
		"images":     len(images),
	}).Info("Review deleted successfully")

	return nil
}

// Stats computes the staff dashboard summary
func (s *Service) Stats(ctx context.Context) (*domain.ReviewStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to compute review stats", err)
		return nil, err
	}

	return stats, nil
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(ctx context.Context, eventType string, review *domain.Review) {
	event := ReviewEvent{
		EventType:   eventType,
		Timestamp:   time.Now(),
		ReviewID:    review.ID,
		ProductNo:   review.ProductNo,
		ProductName: review.ProductName,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for review %d", review.ID)
		return
	}

	// Publish in background to avoid blocking the request path
	go func() {
		if err := s.publisher.Publish(context.Background(), "reviews.events", data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for review %d", review.ID)
		}
	}()
}

// attachImages loads images for every review in one query
func (s *Service) attachImages(ctx context.Context, reviews []*domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	ids := make([]int64, len(reviews))
	for i, review := range reviews {
		ids[i] = review.ID
	}

	byReview, err := s.imageRepo.GetByReviewIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, review := range reviews {
		images := byReview[review.ID]
		if images == nil {
			images = []*domain.Image{}
		}
		review.Images = images
	}

	return nil
}
