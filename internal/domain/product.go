package domain

import (
	"context"
	"time"
)

// Product is a bookkeeping registry row. The widget engine treats a product
// as nothing more than the product_no value on its reviews; this table is
// maintained asynchronously and is not consulted on the widget path.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	ProductNo   string    `json:"product_no" db:"product_no"`
	ProductName string    `json:"product_name" db:"product_name"`
	ReviewCount int       `json:"review_count" db:"review_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductRepository defines the interface for the product registry
type ProductRepository interface {
	// Upsert ensures a registry row exists for productNo, refreshing the
	// denormalized name when a non-empty one is supplied
	Upsert(ctx context.Context, productNo, productName string) error

	// RefreshReviewCount recounts reviews for productNo and stores the
	// result; missing registry rows are not an error
	RefreshReviewCount(ctx context.Context, productNo string) error

	// GetByProductNo retrieves a registry row
	GetByProductNo(ctx context.Context, productNo string) (*Product, error)

	// List retrieves registry rows ordered by product_no
	List(ctx context.Context, limit, offset int) ([]*Product, error)
}
