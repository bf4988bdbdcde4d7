package repository

import (
	"context"

	"storefront/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ProductRepository is the catalogue store.
type ProductRepository interface {
	// GetAll retrieves every product ordered by id.
	GetAll(ctx context.Context) ([]model.Product, error)

	// GetByIDs retrieves the products whose ids are listed. Unknown ids are absent from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// Count returns the number of products in the catalogue.
	Count(ctx context.Context) (int, error)

	// SeedIfEmpty inserts products only when the catalogue is empty and reports whether it did.
	// Concurrent callers are serialised so at most one of them seeds.
	SeedIfEmpty(ctx context.Context, products []model.Product) (bool, error)

	// Replace deletes the catalogue and inserts products in its place.
	Replace(ctx context.Context, products []model.Product) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// LockProducts reads the listed products within the provided transaction and holds a share
	// lock on them until it ends, so the catalogue rows an order prices against cannot be deleted
	// before it commits. Unknown ids are absent from the result.
	LockProducts(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.Product, error)

	// CreateOrder inserts a new order within the provided transaction and fills in its id and
	// creation time.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// MarkEventProcessed claims a provider event id for an order within the provided transaction.
	// It returns false when the event id was already claimed.
	MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventID string, orderID int64) (bool, error)

	// List retrieves orders newest first, each with its items.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
}
