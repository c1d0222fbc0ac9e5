package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/storefront-widgets/review-service/internal/domain"
)

// WidgetRepository implements domain.WidgetRepository for PostgreSQL.
// Every query here scopes to visible reviews of one product; empty result
// sets come back as zero values, never as errors.
type WidgetRepository struct {
	db *sqlx.DB
}

// NewWidgetRepository creates a new PostgreSQL widget repository
func NewWidgetRepository(db *sqlx.DB) *WidgetRepository {
	return &WidgetRepository{db: db}
}

// hasImageClause requires a review to own at least one image. EXISTS keeps
// the review row unique even when it owns several images, so photo-filtered
// pages never show duplicates.
const hasImageClause = `EXISTS (SELECT 1 FROM review_images i WHERE i.review_id = reviews.id)`

// ListPage returns one ordered page of reviews plus the count of all rows
// matching the (possibly photo-filtered) predicate. An out-of-range page
// yields an empty slice with the true total.
func (r *WidgetRepository) ListPage(ctx context.Context, q domain.WidgetQuery) ([]*domain.Review, int, error) {
	predicate := `product_no = $1 AND is_visible`
	if q.PhotoOnly {
		predicate += " AND " + hasImageClause
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM reviews WHERE %s`, predicate)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, q.ProductNo); err != nil {
		return nil, 0, err
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, product_no, product_name, author, rating, title, content, is_visible, display_order, created_at, updated_at
		FROM reviews
		WHERE %s
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, predicate, q.Sort.OrderBy())

	var reviews []*domain.Review
	if err := r.db.SelectContext(ctx, &reviews, dataQuery, q.ProductNo, q.PerPage, q.Offset()); err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// Stats computes the five widget aggregates over the product's unfiltered
// visible set. All queries share the same base predicate so the outputs stay
// mutually consistent regardless of how the page itself was filtered.
func (r *WidgetRepository) Stats(ctx context.Context, productNo string, galleryLimit int) (*domain.WidgetStats, error) {
	stats := &domain.WidgetStats{
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		AllPhotoURLs:       []string{},
	}

	// Count and mean in one pass; COALESCE defines the empty-set average as 0.
	summaryQuery := `
		SELECT COUNT(*) AS cnt, ROUND(COALESCE(AVG(rating), 0)::numeric, 1) AS avg_rating
		FROM reviews
		WHERE product_no = $1 AND is_visible
	`
	var summary struct {
		Cnt       int     `db:"cnt"`
		AvgRating float64 `db:"avg_rating"`
	}
	if err := r.db.GetContext(ctx, &summary, summaryQuery, productNo); err != nil {
		return nil, err
	}
	stats.TotalReviews = summary.Cnt
	stats.AverageRating = summary.AvgRating

	distQuery := `
		SELECT rating, COUNT(*) AS cnt
		FROM reviews
		WHERE product_no = $1 AND is_visible
		GROUP BY rating
	`
	rows, err := r.db.QueryxContext(ctx, distQuery, productNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rating, cnt int
		if err := rows.Scan(&rating, &cnt); err != nil {
			return nil, err
		}
		if rating >= 1 && rating <= 5 {
			stats.RatingDistribution[rating] = cnt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	photoCountQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM reviews
		WHERE product_no = $1 AND is_visible AND %s
	`, hasImageClause)
	if err := r.db.GetContext(ctx, &stats.PhotoReviewCount, photoCountQuery, productNo); err != nil {
		return nil, err
	}

	// One path per photo-bearing review: its first image by id, reviews
	// ordered newest first, bounded by the gallery limit.
	galleryQuery := fmt.Sprintf(`
		SELECT (
			SELECT i.file_path FROM review_images i
			WHERE i.review_id = reviews.id
			ORDER BY i.id ASC
			LIMIT 1
		) AS file_path
		FROM reviews
		WHERE product_no = $1 AND is_visible AND %s
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, hasImageClause)

	var paths []string
	if err := r.db.SelectContext(ctx, &paths, galleryQuery, productNo, galleryLimit); err != nil {
		return nil, err
	}
	if paths != nil {
		stats.AllPhotoURLs = paths
	}

	return stats, nil
}
