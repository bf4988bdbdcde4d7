package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var productColumns = []string{"id", "name", "description", "image", "price_cents", "created_at"}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves every product ordered by id.
func (r *productRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	query, args, err := psql.Select(productColumns...).
		From("products").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build products query: %w", err)
	}

	return r.query(ctx, query, args...)
}

// GetByIDs retrieves the products whose ids are listed.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT id, name, description, image, price_cents, created_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
	`

	products, err := r.query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, err
	}

	return products, nil
}

// Count returns the number of products in the catalogue.
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// SeedIfEmpty inserts products only when the catalogue is empty.
func (r *productRepository) SeedIfEmpty(ctx context.Context, products []model.Product) (seeded bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Blocks concurrent seeders until this transaction ends; readers are unaffected.
	if _, err = tx.Exec(ctx, `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("failed to lock products: %w", err)
	}

	var count int
	if err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count products: %w", err)
	}

	if count > 0 {
		r.logger.Debug().Int("count", count).Msg("catalogue already populated")
		return false, tx.Rollback(ctx)
	}

	if err = r.insert(ctx, tx, products); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}

	r.logger.Info().Int("count", len(products)).Msg("catalogue seeded")

	return true, nil
}

// Replace deletes the catalogue and inserts products in its place.
func (r *productRepository) Replace(ctx context.Context, products []model.Product) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM products`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to delete products")
		return fmt.Errorf("failed to delete products: %w", err)
	}

	if err = r.insert(ctx, tx, products); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalogue replacement: %w", err)
	}

	r.logger.Info().
		Int64("deleted", tag.RowsAffected()).
		Int("inserted", len(products)).
		Msg("catalogue replaced")

	return nil
}

func (r *productRepository) insert(ctx context.Context, tx pgx.Tx, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	query := `
		INSERT INTO products (name, description, image, price_cents)
		VALUES ($1, $2, $3, $4)
	`

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query, p.Name, p.Description, p.Image, p.PriceCents)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range products {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("name", products[i].Name).
				Msg("failed to insert product")
			return fmt.Errorf("failed to insert product %q: %w", products[i].Name, err)
		}
	}

	return nil
}

func (r *productRepository) query(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.PriceCents, &p.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
