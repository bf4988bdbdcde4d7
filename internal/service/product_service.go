package service

import (
	"context"
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

const (
	msgProductsExist = "Products already exist."
	msgSeeded        = "Seeded sample products."
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	seeds       catalog.Loader
	seedName    string
	logger      zerolog.Logger
}

// NewProductService creates a new product service. seedName selects the seed source passed to
// seeds; an empty name selects the built-in products.
func NewProductService(
	productRepo repository.ProductRepository,
	seeds catalog.Loader,
	seedName string,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		seeds:       seeds,
		seedName:    seedName,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves every product.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().Int("count", len(products)).Msg("retrieved products")

	return products, nil
}

// Seed populates an empty catalogue. Seeding a populated catalogue is a no-op.
func (s *productService) Seed(ctx context.Context) (string, error) {
	count, err := s.productRepo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return msgProductsExist, nil
	}

	products, err := s.seeds.Load(ctx, s.seedName)
	if err != nil {
		s.logger.Error().Err(err).Str("source", s.seedName).Msg("failed to load seed catalogue")
		return "", fmt.Errorf("failed to load seed catalogue: %w", err)
	}

	seeded, err := s.productRepo.SeedIfEmpty(ctx, products)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to seed products")
		return "", fmt.Errorf("failed to seed products: %w", err)
	}

	if !seeded {
		return msgProductsExist, nil
	}

	s.logger.Info().Int("count", len(products)).Msg("catalogue seeded")

	return msgSeeded, nil
}

// Reseed replaces the catalogue and returns the number of products inserted.
func (s *productService) Reseed(ctx context.Context) (int, error) {
	products, err := s.seeds.Load(ctx, s.seedName)
	if err != nil {
		return 0, fmt.Errorf("failed to load seed catalogue: %w", err)
	}

	if err := s.productRepo.Replace(ctx, products); err != nil {
		s.logger.Error().Err(err).Msg("failed to replace catalogue")
		return 0, fmt.Errorf("failed to replace catalogue: %w", err)
	}

	return len(products), nil
}
