package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductRepository) SeedIfEmpty(ctx context.Context, products []model.Product) (bool, error) {
	args := m.Called(ctx, products)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Replace(ctx context.Context, products []model.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func setupCachedRepo(t *testing.T) (*MockProductRepository, *miniredis.Miniredis, ProductRepository) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	next := new(MockProductRepository)
	repo := NewCachedProductRepository(next, cache.NewRedisCache(client, time.Minute), zerolog.Nop())
	return next, mr, repo
}

func catalog() []model.Product {
	return []model.Product{
		{ID: 1, Name: "Blue Tee", PriceCents: 1500},
		{ID: 2, Name: "Red Hoodie", PriceCents: 4500},
		{ID: 3, Name: "Canvas Tote", PriceCents: 2500},
	}
}

func TestCachedProductRepository_GetAll_LoadsOnce(t *testing.T) {
	next, _, repo := setupCachedRepo(t)
	ctx := context.Background()

	next.On("GetAll", mock.Anything).Return(catalog(), nil).Once()

	first, err := repo.GetAll(ctx)
	require.NoError(t, err)
	second, err := repo.GetAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, 3)
	next.AssertNumberOfCalls(t, "GetAll", 1)
}

func TestCachedProductRepository_GetAll_ConcurrentMissesCollapse(t *testing.T) {
	next, _, repo := setupCachedRepo(t)
	ctx := context.Background()

	release := make(chan struct{})
	next.On("GetAll", mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(catalog(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := repo.GetAll(ctx)
			assert.NoError(t, err)
			assert.Len(t, products, 3)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	next.AssertNumberOfCalls(t, "GetAll", 1)
}

func TestCachedProductRepository_CancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	next, _, repo := setupCachedRepo(t)

	started := make(chan struct{})
	release := make(chan struct{})
	next.On("GetAll", mock.Anything).
		Run(func(args mock.Arguments) {
			loadCtx := args.Get(0).(context.Context)
			close(started)
			select {
			case <-release:
			case <-loadCtx.Done():
			}
			assert.NoError(t, loadCtx.Err())
		}).
		Return(catalog(), nil).Once()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		_, err := repo.GetAll(cancelledCtx)
		cancelledErr <- err
	}()
	<-started

	type result struct {
		products []model.Product
		err      error
	}
	healthy := make(chan result, 1)
	go func() {
		products, err := repo.GetByIDs(context.Background(), []int64{1})
		healthy <- result{products, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-cancelledErr, context.Canceled)

	close(release)
	res := <-healthy
	require.NoError(t, res.err)
	require.Len(t, res.products, 1)
	assert.Equal(t, "Blue Tee", res.products[0].Name)
	next.AssertNumberOfCalls(t, "GetAll", 1)
}

func TestCachedProductRepository_GetAll_Error(t *testing.T) {
	next, mr, repo := setupCachedRepo(t)
	ctx := context.Background()

	next.On("GetAll", mock.Anything).Return(nil, errors.New("db down"))

	_, err := repo.GetAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.False(t, mr.Exists("storefront:catalog"))
}

func TestCachedProductRepository_RedisDownFallsBack(t *testing.T) {
	next, mr, repo := setupCachedRepo(t)
	ctx := context.Background()
	mr.Close()

	next.On("GetAll", mock.Anything).Return(catalog(), nil)

	products, err := repo.GetByIDs(ctx, []int64{3})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Canvas Tote", products[0].Name)
}

func TestCachedProductRepository_GetByIDs_FiltersSnapshot(t *testing.T) {
	next, _, repo := setupCachedRepo(t)
	ctx := context.Background()

	next.On("GetAll", mock.Anything).Return(catalog(), nil).Once()

	products, err := repo.GetByIDs(ctx, []int64{3, 42, 1})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(3), products[1].ID)

	none, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	next.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}

func TestCachedProductRepository_SeedInvalidates(t *testing.T) {
	next, mr, repo := setupCachedRepo(t)
	ctx := context.Background()

	next.On("GetAll", mock.Anything).Return(catalog(), nil).Once()
	_, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists("storefront:catalog"))

	next.On("SeedIfEmpty", ctx, mock.Anything).Return(false, nil).Once()
	seeded, err := repo.SeedIfEmpty(ctx, catalog())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.True(t, mr.Exists("storefront:catalog"))

	next.On("SeedIfEmpty", ctx, mock.Anything).Return(true, nil).Once()
	seeded, err = repo.SeedIfEmpty(ctx, catalog())
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.False(t, mr.Exists("storefront:catalog"))
}

func TestCachedProductRepository_ReplaceInvalidates(t *testing.T) {
	next, mr, repo := setupCachedRepo(t)
	ctx := context.Background()

	next.On("GetAll", mock.Anything).Return(catalog(), nil).Once()
	_, err := repo.GetAll(ctx)
	require.NoError(t, err)

	next.On("Replace", ctx, mock.Anything).Return(nil)
	require.NoError(t, repo.Replace(ctx, catalog()))
	assert.False(t, mr.Exists("storefront:catalog"))

	next.On("Count", ctx).Return(3, nil)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
