package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/storefront-widgets/review-service/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (product_no, product_name, author, rating, title, content, is_visible, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.ProductNo,
		review.ProductName,
		review.Author,
		review.Rating,
		review.Title,
		review.Content,
		review.IsVisible,
		review.DisplayOrder,
	).Scan(
		&review.ID,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := `
		SELECT id, product_no, product_name, author, rating, title, content, is_visible, display_order, created_at, updated_at
		FROM reviews
		WHERE id = $1
	`

	var review domain.Review
	err := r.db.GetContext(ctx, &review, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &review, nil
}

// List retrieves reviews for the staff listing, hidden included. The filter
// may narrow by product_no and by an author/title/content substring.
func (r *ReviewRepository) List(ctx context.Context, filter domain.ReviewFilter, limit, offset int) ([]*domain.Review, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ProductNo != "" {
		args = append(args, filter.ProductNo)
		conditions = append(conditions, fmt.Sprintf("product_no = $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(author ILIKE $%d OR title ILIKE $%d OR content ILIKE $%d)", n, n, n))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reviews %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	dataQuery := fmt.Sprintf(`
		SELECT id, product_no, product_name, author, rating, title, content, is_visible, display_order, created_at, updated_at
		FROM reviews %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args))

	var reviews []*domain.Review
	if err := r.db.SelectContext(ctx, &reviews, dataQuery, args...); err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// Update applies only the non-nil fields of upd; updated_at is always refreshed.
func (r *ReviewRepository) Update(ctx context.Context, id int64, upd *domain.ReviewUpdate) error {
	var setClauses []string
	var args []interface{}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.ProductNo != nil {
		addSet("product_no", *upd.ProductNo)
	}
	if upd.ProductName != nil {
		addSet("product_name", *upd.ProductName)
	}
	if upd.Author != nil {
		addSet("author", *upd.Author)
	}
	if upd.Rating != nil {
		addSet("rating", *upd.Rating)
	}
	if upd.Title != nil {
		addSet("title", *upd.Title)
	}
	if upd.Content != nil {
		addSet("content", *upd.Content)
	}
	if upd.IsVisible != nil {
		addSet("is_visible", *upd.IsVisible)
	}
	if upd.DisplayOrder != nil {
		addSet("display_order", *upd.DisplayOrder)
	}

	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE reviews SET %s WHERE id = $%d", strings.Join(setClauses, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
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

// SetVisibility sets the visibility flag. The write goes through even when
// the flag already holds the requested value, so updated_at still moves.
func (r *ReviewRepository) SetVisibility(ctx context.Context, id int64, visible bool) error {
	query := `UPDATE reviews SET is_visible = $1, updated_at = now() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, visible, id)
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

// Delete removes a review; image rows go with it via ON DELETE CASCADE
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM reviews WHERE id = $1`

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

// Stats computes the staff dashboard summary over all reviews
func (r *ReviewRepository) Stats(ctx context.Context) (*domain.ReviewStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_reviews,
			COUNT(*) FILTER (WHERE is_visible) AS visible_reviews,
			ROUND(COALESCE(AVG(rating), 0)::numeric, 1) AS average_rating,
			COUNT(DISTINCT product_no) AS total_products
		FROM reviews
	`

	var stats domain.ReviewStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, err
	}

	return &stats, nil
}
