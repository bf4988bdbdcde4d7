package service

import (
	"context"

	"storefront/internal/model"
)

// ProductService defines operations on the catalogue.
type ProductService interface {
	// List retrieves every product.
	List(ctx context.Context) ([]model.Product, error)

	// Seed populates an empty catalogue from the configured seed source and returns a status message.
	Seed(ctx context.Context) (string, error)

	// Reseed replaces the catalogue with the configured seed source.
	Reseed(ctx context.Context) (int, error)
}

// CheckoutService prices a client cart and opens a hosted checkout session for it.
type CheckoutService interface {
	CreateSession(ctx context.Context, req *model.CheckoutRequest, baseURL string) (*model.CheckoutResponse, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// Record persists one paid order and its items atomically and returns the order id.
	Record(ctx context.Context, req model.RecordRequest) (int64, error)

	// List retrieves orders newest first, each with its items.
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
}

// FulfillmentService turns provider notifications into recorded orders.
type FulfillmentService interface {
	// Handle verifies and processes one raw notification. A non-nil error means the notification
	// must not be acknowledged.
	Handle(ctx context.Context, payload []byte, signature string) (FulfillmentResult, error)
}
