package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-widgets/review-service/internal/domain"
)

func TestReviewRepository_Create(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs("P100", "Widget", "kim", 5, "Great", "Loved it", true, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

	review := &domain.Review{
		ProductNo:   "P100",
		ProductName: "Widget",
		Author:      "kim",
		Rating:      5,
		Title:       "Great",
		Content:     "Loved it",
		IsVisible:   true,
	}

	err := repo.Create(context.Background(), review)

	require.NoError(t, err)
	assert.Equal(t, int64(42), review.ID)
	assert.Equal(t, now, review.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_NotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectQuery(`SELECT id, product_no`).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	review, err := repo.GetByID(context.Background(), 999)

	assert.Nil(t, review)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_List_WithFilters(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reviews WHERE product_no = \$1 AND \(author ILIKE \$2 OR title ILIKE \$2 OR content ILIKE \$2\)`).
		WithArgs("P100", "%kim%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("P100", "%kim%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "product_no", "product_name", "author", "rating", "title",
			"content", "is_visible", "display_order", "created_at", "updated_at",
		}).AddRow(1, "P100", "Widget", "kim", 5, "", "fine", false, 0, now, now))

	reviews, total, err := repo.List(context.Background(), domain.ReviewFilter{
		ProductNo: "P100",
		Search:    "kim",
	}, 20, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, reviews, 1)
	// Hidden reviews stay in the staff listing
	assert.False(t, reviews[0].IsVisible)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_PartialFields(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectExec(`UPDATE reviews SET rating = \$1, content = \$2, updated_at = now\(\) WHERE id = \$3`).
		WithArgs(3, "changed my mind", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rating := 3
	content := "changed my mind"
	err := repo.Update(context.Background(), 7, &domain.ReviewUpdate{
		Rating:  &rating,
		Content: &content,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_NotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectExec(`UPDATE reviews SET`).
		WithArgs("new title", int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	title := "new title"
	err := repo.Update(context.Background(), 999, &domain.ReviewUpdate{Title: &title})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_SetVisibility(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectExec(`UPDATE reviews SET is_visible = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs(false, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetVisibility(context.Background(), 7, false)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_SetVisibility_NotFound(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectExec(`UPDATE reviews SET is_visible`).
		WithArgs(true, int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetVisibility(context.Background(), 999, true)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Delete(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectExec(`DELETE FROM reviews WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 7)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Stats(t *testing.T) {
	sqlxDB, mock := newMockDB(t)
	repo := NewReviewRepository(sqlxDB)

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\) AS total_reviews`).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_reviews", "visible_reviews", "average_rating", "total_products",
		}).AddRow(10, 8, 4.2, 3))

	stats, err := repo.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalReviews)
	assert.Equal(t, 8, stats.VisibleReviews)
	assert.Equal(t, 4.2, stats.AverageRating)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
