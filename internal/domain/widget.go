package domain

import (
	"context"
	"fmt"
)

// SortKey identifies one of the widget's review orderings. Every key resolves
// to a total order: ties on the primary column fall back to recency, then id,
// so pagination is stable no matter how the rows were inserted.
type SortKey string

const (
	SortLatest     SortKey = "latest"
	SortRatingHigh SortKey = "rating_high"
	SortRatingLow  SortKey = "rating_low"
)

// ParseSortKey validates a raw sort value from the query string. An empty
// value falls back to SortLatest.
func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(raw) {
	case "":
		return SortLatest, nil
	case SortLatest, SortRatingHigh, SortRatingLow:
		return SortKey(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, raw)
	}
}

// OrderBy returns the ORDER BY column spec for the key. Column names are
// unqualified so the same spec works for joined and non-joined queries.
func (k SortKey) OrderBy() string {
	switch k {
	case SortRatingHigh:
		return "rating DESC, created_at DESC, id DESC"
	case SortRatingLow:
		return "rating ASC, created_at DESC, id DESC"
	default:
		return "display_order ASC, created_at DESC, id DESC"
	}
}

// WidgetQuery is a resolved widget page request. Page and PerPage are assumed
// range-validated by the transport layer (page >= 1, 1 <= per_page <= 50).
type WidgetQuery struct {
	ProductNo string
	Page      int
	PerPage   int
	Sort      SortKey
	PhotoOnly bool
}

// Offset returns the zero-based row offset for the query.
func (q WidgetQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// WidgetStats holds the aggregates computed over a product's full visible
// review set, independent of any page filter.
type WidgetStats struct {
	TotalReviews       int         `json:"total_reviews"`
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	PhotoReviewCount   int         `json:"photo_review_count"`
	AllPhotoURLs       []string    `json:"all_photo_urls"`
}

// WidgetPage is the widget response: one ordered slice of reviews plus the
// filtered total and the unfiltered aggregates.
type WidgetPage struct {
	Items   []*Review `json:"items"`
	Total   int       `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
	WidgetStats
}

// WidgetRepository is the read side of the widget query engine. All methods
// scope to visible reviews of one product and never fail on empty sets.
type WidgetRepository interface {
	// ListPage returns one ordered page of reviews plus the count of all
	// rows matching the (possibly photo-filtered) predicate
	ListPage(ctx context.Context, q WidgetQuery) ([]*Review, int, error)

	// Stats computes the five aggregates over the unfiltered visible set;
	// galleryLimit bounds the photo URL list
	Stats(ctx context.Context, productNo string, galleryLimit int) (*WidgetStats, error)
}
