package model

import "time"

// Product represents an item in the storefront catalogue.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductsResponse is the payload of GET /api/products.
type ProductsResponse struct {
	Products []Product `json:"products"`
}
