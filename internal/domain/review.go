package domain

import (
	"context"
	"time"
)

// Review represents a staff-authored product review
type Review struct {
	ID           int64     `json:"id" db:"id"`
	ProductNo    string    `json:"product_no" db:"product_no" validate:"required,min=1"`
	ProductName  string    `json:"product_name" db:"product_name"`
	Author       string    `json:"author" db:"author" validate:"required,min=1,max=100"`
	Rating       int       `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Title        string    `json:"title" db:"title"`
	Content      string    `json:"content" db:"content" validate:"required,min=1"`
	IsVisible    bool      `json:"is_visible" db:"is_visible"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	Images       []*Image  `json:"images" db:"-"`
}

// ReviewUpdate carries a partial update: only non-nil fields are applied.
// updated_at is refreshed regardless of which fields are present.
type ReviewUpdate struct {
	ProductNo    *string `json:"product_no,omitempty" validate:"omitempty,min=1"`
	ProductName  *string `json:"product_name,omitempty"`
	Author       *string `json:"author,omitempty" validate:"omitempty,min=1,max=100"`
	Rating       *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title        *string `json:"title,omitempty"`
	Content      *string `json:"content,omitempty" validate:"omitempty,min=1"`
	IsVisible    *bool   `json:"is_visible,omitempty"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u *ReviewUpdate) Empty() bool {
	return u.ProductNo == nil && u.ProductName == nil && u.Author == nil &&
		u.Rating == nil && u.Title == nil && u.Content == nil &&
		u.IsVisible == nil && u.DisplayOrder == nil
}

// ReviewFilter narrows the staff listing. Zero values mean no filter.
type ReviewFilter struct {
	ProductNo string
	Search    string
}

// ReviewStats is the staff dashboard summary over all reviews, hidden included.
type ReviewStats struct {
	TotalReviews   int     `json:"total_reviews" db:"total_reviews"`
	VisibleReviews int     `json:"visible_reviews" db:"visible_reviews"`
	AverageRating  float64 `json:"average_rating" db:"average_rating"`
	TotalProducts  int     `json:"total_products" db:"total_products"`
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create inserts a new review and fills in ID and timestamps
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID (without images)
	GetByID(ctx context.Context, id int64) (*Review, error)

	// List retrieves reviews for the staff listing, hidden included,
	// newest first, along with the total count matching the filter
	List(ctx context.Context, filter ReviewFilter, limit, offset int) ([]*Review, int, error)

	// Update applies the non-nil fields of upd and refreshes updated_at
	Update(ctx context.Context, id int64, upd *ReviewUpdate) error

	// SetVisibility sets the visibility flag and refreshes updated_at,
	// even when the flag already holds the requested value
	SetVisibility(ctx context.Context, id int64, visible bool) error

	// Delete removes a review; image rows are removed by cascade
	Delete(ctx context.Context, id int64) error

	// Stats computes the staff dashboard summary
	Stats(ctx context.Context) (*ReviewStats, error)
}
