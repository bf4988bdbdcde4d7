package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// MessageResponse carries a human-readable status.
type MessageResponse struct {
	Message string `json:"message"`
}

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	products service.ProductService
	orders   service.OrderService
	logger   zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(products service.ProductService, orders service.OrderService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		products: products,
		orders:   orders,
		logger:   logger.With().Str("handler", "admin").Logger(),
	}
}

// Seed handles POST /api/admin/seed.
func (h *AdminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	msg, err := h.products.Seed(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to seed products", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// ListOrders handles GET /api/admin/orders with optional limit and offset.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid limit parameter", h.logger)
		return
	}

	offset, ok := queryInt(r, "offset")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid offset parameter", h.logger)
		return
	}

	orders, err := h.orders.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to list orders", h.logger)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, model.OrdersResponse{Orders: orders})
}

// queryInt parses an optional integer query parameter; absent parameters read as 0.
func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
