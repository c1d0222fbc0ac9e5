package domain

import (
	"context"
	"time"
)

// Image is the metadata row for one uploaded review photo. The file bytes
// live under the storage root at FilePath; the row only points at them.
type Image struct {
	ID           int64     `json:"id" db:"id"`
	ReviewID     int64     `json:"review_id" db:"review_id"`
	FilePath     string    `json:"file_path" db:"file_path"`
	OriginalName string    `json:"original_name" db:"original_name"`
	FileSize     int64     `json:"file_size" db:"file_size"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ImageRepository defines the interface for review image metadata access
type ImageRepository interface {
	// Create inserts an image row and fills in ID and created_at
	Create(ctx context.Context, image *Image) error

	// GetByID retrieves an image row by ID
	GetByID(ctx context.Context, id int64) (*Image, error)

	// GetByReviewID retrieves all images of one review in ascending id order
	GetByReviewID(ctx context.Context, reviewID int64) ([]*Image, error)

	// GetByReviewIDs retrieves images for a set of reviews in one query,
	// grouped by review, each group in ascending id order
	GetByReviewIDs(ctx context.Context, reviewIDs []int64) (map[int64][]*Image, error)

	// CountByReviewID returns the number of images a review owns
	CountByReviewID(ctx context.Context, reviewID int64) (int, error)

	// Delete removes an image row
	Delete(ctx context.Context, id int64) error
}
