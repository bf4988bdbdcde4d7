package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	catalogFlightKey   = "catalog"
	catalogLoadTimeout = 10 * time.Second
)

// cachedProductRepository serves catalogue reads from a cached snapshot and falls back to the
// wrapped repository on a miss. Cache failures degrade to direct reads, never to errors.
type cachedProductRepository struct {
	next   ProductRepository
	cache  cache.CatalogCache
	sfg    singleflight.Group
	logger zerolog.Logger
}

// NewCachedProductRepository wraps next with a catalogue snapshot cache.
func NewCachedProductRepository(next ProductRepository, c cache.CatalogCache, logger zerolog.Logger) ProductRepository {
	return &cachedProductRepository{
		next:   next,
		cache:  c,
		logger: logger.With().Str("repository", "product_cache").Logger(),
	}
}

// GetAll returns the cached snapshot, loading it once per miss across concurrent callers.
// A caller that gives up stops waiting without cancelling the shared load.
func (r *cachedProductRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	ch := r.sfg.DoChan(catalogFlightKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()
		return r.load(loadCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Product), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *cachedProductRepository) load(ctx context.Context) ([]model.Product, error) {
	products, err := r.cache.Get(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn().Err(err).Msg("catalogue cache read failed")
	}

	products, err = r.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, products); err != nil {
		r.logger.Warn().Err(err).Msg("catalogue cache write failed")
	}

	return products, nil
}

// GetByIDs filters the cached snapshot.
func (r *cachedProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	products := []model.Product{}
	for _, p := range all {
		if _, ok := wanted[p.ID]; ok {
			products = append(products, p)
		}
	}

	return products, nil
}

func (r *cachedProductRepository) Count(ctx context.Context) (int, error) {
	return r.next.Count(ctx)
}

func (r *cachedProductRepository) SeedIfEmpty(ctx context.Context, products []model.Product) (bool, error) {
	seeded, err := r.next.SeedIfEmpty(ctx, products)
	if err != nil {
		return false, err
	}
	if seeded {
		r.invalidate(ctx)
	}
	return seeded, nil
}

func (r *cachedProductRepository) Replace(ctx context.Context, products []model.Product) error {
	if err := r.next.Replace(ctx, products); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedProductRepository) invalidate(ctx context.Context) {
	if err := r.cache.Invalidate(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("catalogue cache invalidation failed")
	}
}
