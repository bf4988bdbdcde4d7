package main

import (
	"context"
	"fmt"

	"storefront/internal/cache"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the dependencies every command shares.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, pool: pool}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, catalogue cache disabled")
			client.Close()
		} else {
			a.redis = client
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.pool.Close()
}

// productRepository returns the catalogue store, cached when Redis is available.
func (a *app) productRepository() repository.ProductRepository {
	repo := repository.NewProductRepository(a.pool, a.logger)
	if a.redis == nil {
		return repo
	}
	return repository.NewCachedProductRepository(repo, cache.NewRedisCache(a.redis, a.cfg.Redis.TTL), a.logger)
}

// seedLoader returns the seed catalogue source: S3 first when enabled, then the local file system.
func (a *app) seedLoader(ctx context.Context) catalog.Loader {
	fileLoader := catalog.NewFileLoader(a.logger)
	if !a.cfg.S3.Enabled {
		return fileLoader
	}

	s3Loader, err := catalog.NewS3Loader(ctx, a.cfg.S3.Bucket, a.cfg.S3.Region, a.logger)
	if err != nil {
		a.logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return catalog.NewFallbackLoader(s3Loader, fileLoader, a.cfg.S3.Prefix, true, a.logger)
}
