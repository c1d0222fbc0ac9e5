package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/storefront-widgets/review-service/internal/domain"
)

// ImageRepository implements domain.ImageRepository for PostgreSQL
type ImageRepository struct {
	db *sqlx.DB
}

// NewImageRepository creates a new PostgreSQL image repository
func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts an image row
func (r *ImageRepository) Create(ctx context.Context, image *domain.Image) error {
	query := `
		INSERT INTO review_images (review_id, file_path, original_name, file_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		image.ReviewID,
		image.FilePath,
		image.OriginalName,
		image.FileSize,
	).Scan(
		&image.ID,
		&image.CreatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves an image row by ID
func (r *ImageRepository) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	query := `
		SELECT id, review_id, file_path, original_name, file_size, created_at
		FROM review_images
		WHERE id = $1
	`

	var image domain.Image
	err := r.db.GetContext(ctx, &image, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &image, nil
}

// GetByReviewID retrieves all images of one review in ascending id order
func (r *ImageRepository) GetByReviewID(ctx context.Context, reviewID int64) ([]*domain.Image, error) {
	query := `
		SELECT id, review_id, file_path, original_name, file_size, created_at
		FROM review_images
		WHERE review_id = $1
		ORDER BY id ASC
	`

	var images []*domain.Image
	if err := r.db.SelectContext(ctx, &images, query, reviewID); err != nil {
		return nil, err
	}

	return images, nil
}

// GetByReviewIDs retrieves images for a set of reviews in one query so the
// page assembler never issues one lookup per item.
func (r *ImageRepository) GetByReviewIDs(ctx context.Context, reviewIDs []int64) (map[int64][]*domain.Image, error) {
	result := make(map[int64][]*domain.Image, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, review_id, file_path, original_name, file_size, created_at
		FROM review_images
		WHERE review_id = ANY($1)
		ORDER BY review_id ASC, id ASC
	`

	var images []*domain.Image
	if err := r.db.SelectContext(ctx, &images, query, pq.Array(reviewIDs)); err != nil {
		return nil, err
	}

	for _, img := range images {
		result[img.ReviewID] = append(result[img.ReviewID], img)
	}

	return result, nil
}

// CountByReviewID returns the number of images a review owns
func (r *ImageRepository) CountByReviewID(ctx context.Context, reviewID int64) (int, error) {
	query := `SELECT COUNT(*) FROM review_images WHERE review_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, reviewID); err != nil {
		return 0, err
	}

	return count, nil
}

// Delete removes an image row
func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM review_images WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
