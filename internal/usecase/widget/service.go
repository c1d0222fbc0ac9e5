package widget

import (
	"context"

	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
)

// Service is the widget query engine: it resolves a page request into an
// ordered slice of reviews with images attached, and combines it with the
// aggregates computed over the product's full visible set.
type Service struct {
	widgetRepo   domain.WidgetRepository
	imageRepo    domain.ImageRepository
	galleryLimit int
	logger       *logger.Logger
}

// NewService creates a new widget service
func NewService(
	widgetRepo domain.WidgetRepository,
	imageRepo domain.ImageRepository,
	galleryLimit int,
	log *logger.Logger,
) *Service {
	return &Service{
		widgetRepo:   widgetRepo,
		imageRepo:    imageRepo,
		galleryLimit: galleryLimit,
		logger:       log,
	}
}

// GetReviews resolves one widget request. The page and its total reflect the
// photo filter when set; the aggregates always reflect the unfiltered visible
// set, so the two stay consistent the way the storefront widget expects.
// Aggregation runs once per request, never per page item.
func (s *Service) GetReviews(ctx context.Context, q domain.WidgetQuery) (*domain.WidgetPage, error) {
	items, total, err := s.widgetRepo.ListPage(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list widget page", err)
		return nil, err
	}

	stats, err := s.widgetRepo.Stats(ctx, q.ProductNo, s.galleryLimit)
	if err != nil {
		s.logger.Error("Failed to compute widget stats", err)
		return nil, err
	}

	if err := s.attachImages(ctx, items); err != nil {
		s.logger.Error("Failed to attach images to widget page", err)
		return nil, err
	}

	page := &domain.WidgetPage{
		Items:       items,
		Total:       total,
		Page:        q.Page,
		PerPage:     q.PerPage,
		WidgetStats: *stats,
	}
	if page.Items == nil {
		page.Items = []*domain.Review{}
	}

	return page, nil
}

// attachImages loads the images of every review on the page in one query and
// attaches them in ascending id order.
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
