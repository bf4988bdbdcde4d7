package router

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Product  *handler.ProductHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Admin    *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, corsCfg config.CORSConfig, adminAPIKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> CorrelationID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key", middleware.CorrelationIDHeader},
		ExposedHeaders:   []string{middleware.CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Post("/webhook", h.Webhook.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Product.List)
		r.Post("/create-checkout-session", h.Checkout.Create)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(adminAPIKey, logger))
			r.Post("/seed", h.Admin.Seed)
			r.Get("/orders", h.Admin.ListOrders)
		})
	})

	return r
}
