package review

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/pkg/storage"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) List(ctx context.Context, filter domain.ReviewFilter, limit, offset int) ([]*domain.Review, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, id int64, upd *domain.ReviewUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *mockReviewRepo) SetVisibility(ctx context.Context, id int64, visible bool) error {
	args := m.Called(ctx, id, visible)
	return args.Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepo) Stats(ctx context.Context) (*domain.ReviewStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}

type mockImageRepo struct {
	mock.Mock
}

func (m *mockImageRepo) Create(ctx context.Context, image *domain.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *mockImageRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Image), args.Error(1)
}

func (m *mockImageRepo) GetByReviewID(ctx context.Context, reviewID int64) ([]*domain.Image, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Image), args.Error(1)
}

func (m *mockImageRepo) GetByReviewIDs(ctx context.Context, reviewIDs []int64) (map[int64][]*domain.Image, error) {
	args := m.Called(ctx, reviewIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*domain.Image), args.Error(1)
}

func (m *mockImageRepo) CountByReviewID(ctx context.Context, reviewID int64) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

func (m *mockImageRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type testDeps struct {
	repo      *mockReviewRepo
	imageRepo *mockImageRepo
	store     *storage.LocalStorage
	publisher *mockPublisher
	published chan []byte
	service   *Service
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir(), 1<<20)
	require.NoError(t, err)

	repo := new(mockReviewRepo)
	imageRepo := new(mockImageRepo)
	publisher := new(mockPublisher)

	// Events go out on a background goroutine; the channel lets tests wait
	// for them without racing the mock
	published := make(chan []byte, 16)
	publisher.On("Publish", mock.Anything, "reviews.events", mock.Anything).
		Run(func(args mock.Arguments) {
			published <- args.Get(2).([]byte)
		}).
		Return(nil).Maybe()

	return &testDeps{
		repo:      repo,
		imageRepo: imageRepo,
		store:     store,
		publisher: publisher,
		published: published,
		service:   NewService(repo, imageRepo, store, publisher, logger.New("test")),
	}
}

func validReview() *domain.Review {
	return &domain.Review{
		ProductNo: "P100",
		Author:    "kim",
		Rating:    5,
		Content:   "Great product",
		IsVisible: true,
	}
}

func TestCreate(t *testing.T) {
	deps := newTestDeps(t)

	review := validReview()
	deps.repo.On("Create", mock.Anything, review).Return(nil)

	err := deps.service.Create(context.Background(), review)

	require.NoError(t, err)
	assert.NotNil(t, review.Images)
	deps.repo.AssertExpectations(t)
}

func TestCreate_ValidationFailure(t *testing.T) {
	deps := newTestDeps(t)

	tests := []struct {
		name   string
		mutate func(*domain.Review)
	}{
		{"missing product_no", func(r *domain.Review) { r.ProductNo = "" }},
		{"missing author", func(r *domain.Review) { r.Author = "" }},
		{"missing content", func(r *domain.Review) { r.Content = "" }},
		{"rating too low", func(r *domain.Review) { r.Rating = 0 }},
		{"rating too high", func(r *domain.Review) { r.Rating = 6 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review := validReview()
			tt.mutate(review)

			err := deps.service.Create(context.Background(), review)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	deps.repo.AssertNotCalled(t, "Create")
}

func TestGetByID_AttachesImages(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7, ProductNo: "P100"}, nil)
	deps.imageRepo.On("GetByReviewID", mock.Anything, int64(7)).Return([]*domain.Image{
		{ID: 1, ReviewID: 7, FilePath: "review_7/a.jpg"},
	}, nil)

	review, err := deps.service.GetByID(context.Background(), 7)

	require.NoError(t, err)
	assert.Len(t, review.Images, 1)
}

func TestGetByID_NotFound(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("GetByID", mock.Anything, int64(999)).Return(nil, domain.ErrNotFound)

	review, err := deps.service.GetByID(context.Background(), 999)

	assert.Nil(t, review)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_ClampsPagination(t *testing.T) {
	deps := newTestDeps(t)

	// Out-of-range page and per_page fall back to defaults
	deps.repo.On("List", mock.Anything, domain.ReviewFilter{}, 20, 0).Return([]*domain.Review{}, 0, nil)

	reviews, total, err := deps.service.List(context.Background(), domain.ReviewFilter{}, 0, 500)

	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Equal(t, 0, total)
	deps.repo.AssertExpectations(t)
}

func TestUpdate_EmptyUpdateReturnsCurrentState(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7, ProductNo: "P100"}, nil)
	deps.imageRepo.On("GetByReviewID", mock.Anything, int64(7)).Return([]*domain.Image{}, nil)

	review, err := deps.service.Update(context.Background(), 7, &domain.ReviewUpdate{})

	require.NoError(t, err)
	assert.Equal(t, int64(7), review.ID)
	deps.repo.AssertNotCalled(t, "Update")
}

func TestUpdate_InvalidRating(t *testing.T) {
	deps := newTestDeps(t)

	rating := 9
	review, err := deps.service.Update(context.Background(), 7, &domain.ReviewUpdate{Rating: &rating})

	assert.Nil(t, review)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	deps.repo.AssertNotCalled(t, "Update")
}

func TestUpdate(t *testing.T) {
	deps := newTestDeps(t)

	title := "better title"
	upd := &domain.ReviewUpdate{Title: &title}

	deps.repo.On("Update", mock.Anything, int64(7), upd).Return(nil)
	deps.repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7, ProductNo: "P100", Title: title}, nil)
	deps.imageRepo.On("GetByReviewID", mock.Anything, int64(7)).Return([]*domain.Image{}, nil)

	review, err := deps.service.Update(context.Background(), 7, upd)

	require.NoError(t, err)
	assert.Equal(t, title, review.Title)
	deps.repo.AssertExpectations(t)
}

func TestSetVisibility(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("SetVisibility", mock.Anything, int64(7), false).Return(nil)
	deps.repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7, ProductNo: "P100", IsVisible: false}, nil)
	deps.imageRepo.On("GetByReviewID", mock.Anything, int64(7)).Return([]*domain.Image{}, nil)

	review, err := deps.service.SetVisibility(context.Background(), 7, false)

	require.NoError(t, err)
	assert.False(t, review.IsVisible)
	deps.repo.AssertExpectations(t)
}

func TestDelete_RemovesBackingFiles(t *testing.T) {
	deps := newTestDeps(t)

	saved, err := deps.store.Save(bytes.NewReader([]byte("img")), "a.jpg", "image/jpeg", 7)
	require.NoError(t, err)

	deps.repo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7, ProductNo: "P100"}, nil)
	deps.imageRepo.On("GetByReviewID", mock.Anything, int64(7)).Return([]*domain.Image{
		{ID: 1, ReviewID: 7, FilePath: saved.Path},
	}, nil)
	deps.repo.On("Delete", mock.Anything, int64(7)).Return(nil)

	err = deps.service.Delete(context.Background(), 7)

	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(deps.store.Root(), "review_7"))
	assert.True(t, os.IsNotExist(statErr))
	deps.repo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("GetByID", mock.Anything, int64(999)).Return(nil, domain.ErrNotFound)

	err := deps.service.Delete(context.Background(), 999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	deps.repo.AssertNotCalled(t, "Delete")
}

func TestStats(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("Stats", mock.Anything).Return(&domain.ReviewStats{
		TotalReviews:   10,
		VisibleReviews: 8,
		AverageRating:  4.2,
		TotalProducts:  3,
	}, nil)

	stats, err := deps.service.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalReviews)
}

func TestStats_Error(t *testing.T) {
	deps := newTestDeps(t)

	deps.repo.On("Stats", mock.Anything).Return(nil, errors.New("db down"))

	stats, err := deps.service.Stats(context.Background())

	assert.Nil(t, stats)
	assert.Error(t, err)
}
