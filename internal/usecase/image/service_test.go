package image

import (
	"bytes"
	"context"
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

type testDeps struct {
	repo       *mockImageRepo
	reviewRepo *mockReviewRepo
	store      *storage.LocalStorage
	service    *Service
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir(), 1<<20)
	require.NoError(t, err)

	repo := new(mockImageRepo)
	reviewRepo := new(mockReviewRepo)

	return &testDeps{
		repo:       repo,
		reviewRepo: reviewRepo,
		store:      store,
		service:    NewService(repo, reviewRepo, store, 5, logger.New("test")),
	}
}

func upload(name, contentType, content string) Upload {
	return Upload{
		Reader:      bytes.NewReader([]byte(content)),
		Filename:    name,
		ContentType: contentType,
	}
}

func TestUpload(t *testing.T) {
	deps := newTestDeps(t)

	deps.reviewRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7}, nil)
	deps.repo.On("CountByReviewID", mock.Anything, int64(7)).Return(3, nil)
	deps.repo.On("Create", mock.Anything, mock.MatchedBy(func(img *domain.Image) bool {
		return img.ReviewID == 7 && img.FileSize > 0
	})).Return(nil).Twice()

	images, err := deps.service.Upload(context.Background(), 7, []Upload{
		upload("a.jpg", "image/jpeg", "first"),
		upload("b.png", "image/png", "second"),
	})

	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "a.jpg", images[0].OriginalName)

	for _, img := range images {
		_, statErr := os.Stat(filepath.Join(deps.store.Root(), filepath.FromSlash(img.FilePath)))
		assert.NoError(t, statErr)
	}
	deps.repo.AssertExpectations(t)
}

func TestUpload_ReviewNotFound(t *testing.T) {
	deps := newTestDeps(t)

	deps.reviewRepo.On("GetByID", mock.Anything, int64(999)).Return(nil, domain.ErrNotFound)

	images, err := deps.service.Upload(context.Background(), 999, []Upload{
		upload("a.jpg", "image/jpeg", "x"),
	})

	assert.Nil(t, images)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	deps.repo.AssertNotCalled(t, "Create")
}

func TestUpload_EmptyBatch(t *testing.T) {
	deps := newTestDeps(t)

	deps.reviewRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7}, nil)

	images, err := deps.service.Upload(context.Background(), 7, nil)

	assert.Nil(t, images)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpload_CapRejectsWholeBatch(t *testing.T) {
	deps := newTestDeps(t)

	deps.reviewRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7}, nil)
	deps.repo.On("CountByReviewID", mock.Anything, int64(7)).Return(4, nil)

	// 4 existing + 2 incoming exceeds the cap of 5: nothing gets stored
	images, err := deps.service.Upload(context.Background(), 7, []Upload{
		upload("a.jpg", "image/jpeg", "x"),
		upload("b.jpg", "image/jpeg", "y"),
	})

	assert.Nil(t, images)
	assert.ErrorIs(t, err, domain.ErrTooManyImages)
	deps.repo.AssertNotCalled(t, "Create")

	_, statErr := os.Stat(filepath.Join(deps.store.Root(), "review_7"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUpload_InvalidFile(t *testing.T) {
	deps := newTestDeps(t)

	deps.reviewRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7}, nil)
	deps.repo.On("CountByReviewID", mock.Anything, int64(7)).Return(0, nil)

	images, err := deps.service.Upload(context.Background(), 7, []Upload{
		upload("script.exe", "image/jpeg", "x"),
	})

	assert.Nil(t, images)
	assert.ErrorIs(t, err, domain.ErrInvalidFile)
}

func TestUpload_InsertFailureCleansUpFile(t *testing.T) {
	deps := newTestDeps(t)

	deps.reviewRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.Review{ID: 7}, nil)
	deps.repo.On("CountByReviewID", mock.Anything, int64(7)).Return(0, nil)
	deps.repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	images, err := deps.service.Upload(context.Background(), 7, []Upload{
		upload("a.jpg", "image/jpeg", "x"),
	})

	assert.Nil(t, images)
	assert.Error(t, err)

	// The saved file was removed again after the metadata insert failed
	entries, readErr := os.ReadDir(filepath.Join(deps.store.Root(), "review_7"))
	if readErr == nil {
		assert.Empty(t, entries)
	}
}

func TestDelete(t *testing.T) {
	deps := newTestDeps(t)

	saved, err := deps.store.Save(bytes.NewReader([]byte("img")), "a.jpg", "image/jpeg", 7)
	require.NoError(t, err)

	deps.repo.On("GetByID", mock.Anything, int64(3)).Return(&domain.Image{
		ID: 3, ReviewID: 7, FilePath: saved.Path,
	}, nil)
	deps.repo.On("Delete", mock.Anything, int64(3)).Return(nil)

	err = deps.service.Delete(context.Background(), 3)

	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(deps.store.Root(), filepath.FromSlash(saved.Path)))
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
