package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

const maxCheckoutBody = 1 << 20

// CheckoutHandler opens hosted checkout sessions.
type CheckoutHandler struct {
	service       service.CheckoutService
	publicBaseURL string
	logger        zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler. When publicBaseURL is empty, redirect URLs
// are built from the incoming request.
func NewCheckoutHandler(service service.CheckoutService, publicBaseURL string, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:       service,
		publicBaseURL: publicBaseURL,
		logger:        logger.With().Str("handler", "checkout").Logger(),
	}
}

// Create handles POST /api/create-checkout-session.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	resp, err := h.service.CreateSession(r.Context(), &req, requestBaseURL(r, h.publicBaseURL))
	if err != nil {
		var domainErr *model.DomainError
		switch {
		case model.IsValidationError(err) && errors.As(err, &domainErr):
			writeError(w, r, http.StatusBadRequest, domainErr.Message, h.logger)
		default:
			h.logger.Error().Err(err).Msg("checkout session creation failed")
			writeError(w, r, http.StatusInternalServerError, "Failed to create checkout session", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
