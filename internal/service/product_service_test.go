package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/model"

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

// MockLoader is a mock implementation of catalog.Loader.
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, name string) ([]model.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func TestProductService_List(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	testProducts := []model.Product{
		{ID: 1, Name: "Blue Tee", PriceCents: 1500, CreatedAt: time.Now()},
		{ID: 2, Name: "Red Hoodie", PriceCents: 4500, CreatedAt: time.Now()},
	}

	tests := []struct {
		name          string
		mockSetup     func(*MockProductRepository)
		expectedCount int
		expectedError bool
	}{
		{
			name: "Success",
			mockSetup: func(m *MockProductRepository) {
				m.On("GetAll", ctx).Return(testProducts, nil)
			},
			expectedCount: 2,
		},
		{
			name: "Empty catalogue",
			mockSetup: func(m *MockProductRepository) {
				m.On("GetAll", ctx).Return([]model.Product{}, nil)
			},
			expectedCount: 0,
		},
		{
			name: "Repository error",
			mockSetup: func(m *MockProductRepository) {
				m.On("GetAll", ctx).Return(nil, errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			tt.mockSetup(mockRepo)

			service := NewProductService(mockRepo, new(MockLoader), "", logger)
			products, err := service.List(ctx)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, products)
			} else {
				require.NoError(t, err)
				assert.Len(t, products, tt.expectedCount)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_Seed(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	seeds := catalog.DefaultProducts()

	tests := []struct {
		name            string
		mockSetup       func(*MockProductRepository, *MockLoader)
		expectedMessage string
		expectedError   bool
	}{
		{
			name: "Seeds an empty catalogue",
			mockSetup: func(r *MockProductRepository, l *MockLoader) {
				r.On("Count", ctx).Return(0, nil)
				l.On("Load", ctx, "seed.json").Return(seeds, nil)
				r.On("SeedIfEmpty", ctx, seeds).Return(true, nil)
			},
			expectedMessage: "Seeded sample products.",
		},
		{
			name: "Populated catalogue is left alone",
			mockSetup: func(r *MockProductRepository, l *MockLoader) {
				r.On("Count", ctx).Return(4, nil)
			},
			expectedMessage: "Products already exist.",
		},
		{
			name: "Lost the race to a concurrent seed",
			mockSetup: func(r *MockProductRepository, l *MockLoader) {
				r.On("Count", ctx).Return(0, nil)
				l.On("Load", ctx, "seed.json").Return(seeds, nil)
				r.On("SeedIfEmpty", ctx, seeds).Return(false, nil)
			},
			expectedMessage: "Products already exist.",
		},
		{
			name: "Count fails",
			mockSetup: func(r *MockProductRepository, l *MockLoader) {
				r.On("Count", ctx).Return(0, errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name: "Seed source fails",
			mockSetup: func(r *MockProductRepository, l *MockLoader) {
				r.On("Count", ctx).Return(0, nil)
				l.On("Load", ctx, "seed.json").Return(nil, catalog.ErrEmptyCatalog)
			},
			expectedError: true,
		},
		{
			name: "Insert fails",
			mockSetup: func(r *MockProductRepository, l *MockLoader) {
				r.On("Count", ctx).Return(0, nil)
				l.On("Load", ctx, "seed.json").Return(seeds, nil)
				r.On("SeedIfEmpty", ctx, seeds).Return(false, errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			mockLoader := new(MockLoader)
			tt.mockSetup(mockRepo, mockLoader)

			service := NewProductService(mockRepo, mockLoader, "seed.json", logger)
			msg, err := service.Seed(ctx)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Empty(t, msg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedMessage, msg)
			}

			mockRepo.AssertExpectations(t)
			mockLoader.AssertExpectations(t)
		})
	}
}

func TestProductService_Seed_PopulatedSkipsSource(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockLoader := new(MockLoader)
	mockRepo.On("Count", ctx).Return(1, nil)

	service := NewProductService(mockRepo, mockLoader, "", zerolog.Nop())
	_, err := service.Seed(ctx)

	require.NoError(t, err)
	mockLoader.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "SeedIfEmpty", mock.Anything, mock.Anything)
}

func TestProductService_Reseed(t *testing.T) {
	ctx := context.Background()
	seeds := catalog.DefaultProducts()

	t.Run("Replaces the catalogue", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		mockLoader := new(MockLoader)
		mockLoader.On("Load", ctx, "").Return(seeds, nil)
		mockRepo.On("Replace", ctx, seeds).Return(nil)

		service := NewProductService(mockRepo, mockLoader, "", zerolog.Nop())
		n, err := service.Reseed(ctx)

		require.NoError(t, err)
		assert.Equal(t, len(seeds), n)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Replace fails", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		mockLoader := new(MockLoader)
		mockLoader.On("Load", ctx, "").Return(seeds, nil)
		mockRepo.On("Replace", ctx, seeds).Return(errors.New("violates foreign key constraint"))

		service := NewProductService(mockRepo, mockLoader, "", zerolog.Nop())
		n, err := service.Reseed(ctx)

		assert.Error(t, err)
		assert.Zero(t, n)
	})
}
