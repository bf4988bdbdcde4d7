package model

import "time"

// OrderStatus is the lifecycle state of a recorded order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// Order represents a paid checkout persisted from a completion event.
type Order struct {
	ID                int64       `json:"id" db:"id"`
	Email             *string     `json:"email" db:"email"`
	TotalCents        int64       `json:"total_cents" db:"total_cents"`
	Status            OrderStatus `json:"status" db:"status"`
	CheckoutSessionID *string     `json:"checkout_session_id,omitempty" db:"checkout_session_id"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	Items             []OrderItem `json:"items"`
}

// OrderItem represents a line item in an order. Rows are written once, alongside their order.
type OrderItem struct {
	ID             int64 `json:"id" db:"id"`
	OrderID        int64 `json:"order_id" db:"order_id"`
	ProductID      int64 `json:"product_id" db:"product_id"`
	Quantity       int   `json:"quantity" db:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents" db:"unit_price_cents"`
}

// RecordRequest carries everything the order recorder needs from a completion event.
type RecordRequest struct {
	// EventID is the provider event id, used only when deduplication is enabled.
	EventID           string
	CheckoutSessionID string
	Email             *string
	TotalCents        int64
	Items             []CartLine
}

// OrdersResponse is the payload of GET /api/admin/orders.
type OrdersResponse struct {
	Orders []Order `json:"orders"`
}
