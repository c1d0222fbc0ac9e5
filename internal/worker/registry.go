package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
)

// ReviewEvent mirrors the payload published by the review service
type ReviewEvent struct {
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	ReviewID    int64     `json:"review_id"`
	ProductNo   string    `json:"product_no"`
	ProductName string    `json:"product_name"`
}

// RegistryWorker maintains the products bookkeeping table from review
// events. Every event triggers an upsert plus a full review recount, so the
// registry self-corrects even when events are lost or reordered. The widget
// path never reads this table.
type RegistryWorker struct {
	products domain.ProductRepository
	logger   *logger.Logger
}

// NewRegistryWorker creates a new registry worker
func NewRegistryWorker(products domain.ProductRepository, log *logger.Logger) *RegistryWorker {
	return &RegistryWorker{
		products: products,
		logger:   log,
	}
}

// HandleEvent processes a single review event
func (w *RegistryWorker) HandleEvent(ctx context.Context, data []byte) error {
	var event ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.ProductNo == "" {
		w.logger.Warn("Review event without product_no, skipping")
		return nil
	}

	w.logger.WithFields(map[string]interface{}{
		"type":       event.EventType,
		"review_id":  event.ReviewID,
		"product_no": event.ProductNo,
	}).Info("Received review event")

	if err := w.products.Upsert(ctx, event.ProductNo, event.ProductName); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", event.ProductNo, err)
	}

	if err := w.products.RefreshReviewCount(ctx, event.ProductNo); err != nil {
		return fmt.Errorf("failed to refresh review count for %s: %w", event.ProductNo, err)
	}

	w.logger.WithFields(map[string]interface{}{
		"product_no": event.ProductNo,
	}).Debug("Product registry updated")

	return nil
}
