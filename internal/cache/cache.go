package cache

import (
	"context"
	"errors"

	"storefront/internal/model"
)

// ErrCacheMiss is returned when no catalogue snapshot is cached.
var ErrCacheMiss = errors.New("cache miss")

// CatalogCache stores a snapshot of the whole product catalogue.
type CatalogCache interface {
	Get(ctx context.Context) ([]model.Product, error)
	Set(ctx context.Context, products []model.Product) error
	Invalidate(ctx context.Context) error
}
