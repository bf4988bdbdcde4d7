package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBody matches the provider's documented upper bound on event payloads.
const maxWebhookBody = 65536

// ReceivedResponse acknowledges a provider notification.
type ReceivedResponse struct {
	Received bool `json:"received"`
}

// WebhookHandler receives provider notifications.
type WebhookHandler struct {
	service service.FulfillmentService
	logger  zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(service service.FulfillmentService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger.With().Str("handler", "webhook").Logger(),
	}
}

// Receive handles POST /webhook. The body is read raw because the signature covers its exact bytes.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Webhook Error: unreadable payload", h.logger)
		return
	}

	result, err := h.service.Handle(r.Context(), payload, r.Header.Get(payment.SignatureHeader))
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidSignature), errors.Is(err, model.ErrMalformedEvent):
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("webhook rejected")
		writeError(w, r, http.StatusBadRequest, "Webhook Error: "+rejectionReason(err), h.logger)
		return
	default:
		writeError(w, r, http.StatusInternalServerError, "Failed to record order", h.logger)
		return
	}

	h.logger.Info().
		Str("outcome", string(result.Outcome)).
		Str("event_id", result.EventID).
		Int64("order_id", result.OrderID).
		Msg("webhook processed")

	writeJSON(w, http.StatusOK, ReceivedResponse{Received: true})
}

func rejectionReason(err error) string {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "invalid event"
}
