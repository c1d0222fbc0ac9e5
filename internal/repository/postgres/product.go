package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/storefront-widgets/review-service/internal/domain"
)

// ProductRepository implements domain.ProductRepository for PostgreSQL.
// The registry is bookkeeping only; the widget path never reads it.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new PostgreSQL product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert ensures a registry row exists for productNo. A non-empty name
// overwrites the stored one; an empty name leaves it alone.
func (r *ProductRepository) Upsert(ctx context.Context, productNo, productName string) error {
	query := `
		INSERT INTO products (product_no, product_name)
		VALUES ($1, $2)
		ON CONFLICT (product_no) DO UPDATE SET
			product_name = CASE WHEN EXCLUDED.product_name <> '' THEN EXCLUDED.product_name ELSE products.product_name END,
			updated_at = now()
	`

	_, err := r.db.ExecContext(ctx, query, productNo, productName)
	return err
}

// RefreshReviewCount recounts reviews for productNo and stores the result.
// Full recount keeps the registry self-correcting under event loss.
func (r *ProductRepository) RefreshReviewCount(ctx context.Context, productNo string) error {
	query := `
		UPDATE products
		SET review_count = (SELECT COUNT(*) FROM reviews WHERE product_no = $1),
		    updated_at = now()
		WHERE product_no = $1
	`

	_, err := r.db.ExecContext(ctx, query, productNo)
	return err
}

// GetByProductNo retrieves a registry row
func (r *ProductRepository) GetByProductNo(ctx context.Context, productNo string) (*domain.Product, error) {
	query := `
		SELECT id, product_no, product_name, review_count, created_at, updated_at
		FROM products
		WHERE product_no = $1
	`

	var product domain.Product
	err := r.db.GetContext(ctx, &product, query, productNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &product, nil
}

// List retrieves registry rows ordered by product_no
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := `
		SELECT id, product_no, product_name, review_count, created_at, updated_at
		FROM products
		ORDER BY product_no ASC
		LIMIT $1 OFFSET $2
	`

	var products []*domain.Product
	if err := r.db.SelectContext(ctx, &products, query, limit, offset); err != nil {
		return nil, err
	}

	return products, nil
}
