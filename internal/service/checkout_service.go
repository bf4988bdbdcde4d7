package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Pricer recomputes a cart against the catalogue.
type Pricer interface {
	Price(ctx context.Context, cart []model.CartLine) (model.PricingResult, error)
}

// SessionGateway opens hosted checkout sessions.
type SessionGateway interface {
	CreateSession(ctx context.Context, intent model.CheckoutIntent) (*model.CheckoutResponse, error)
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	pricer  Pricer
	gateway SessionGateway
	logger  zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(pricer Pricer, gateway SessionGateway, logger zerolog.Logger) CheckoutService {
	return &checkoutService{
		pricer:  pricer,
		gateway: gateway,
		logger:  logger.With().Str("service", "checkout").Logger(),
	}
}

// CreateSession prices the cart server-side and opens a session redirecting back to baseURL.
func (s *checkoutService) CreateSession(ctx context.Context, req *model.CheckoutRequest, baseURL string) (*model.CheckoutResponse, error) {
	if req == nil {
		return nil, model.ErrInvalidRequest
	}

	priced, err := s.pricer.Price(ctx, req.Cart)
	if err != nil {
		s.logger.Error().Err(err).Int("lines", len(req.Cart)).Msg("failed to price cart")
		return nil, fmt.Errorf("failed to price cart: %w", err)
	}

	if len(priced.LineItems) == 0 {
		s.logger.Warn().Int("lines", len(req.Cart)).Msg("cart has no purchasable items")
		return nil, model.ErrEmptyCart
	}

	base := strings.TrimRight(baseURL, "/")
	intent := model.CheckoutIntent{
		Priced:     priced,
		Cart:       req.Cart,
		Email:      strings.TrimSpace(req.Email),
		SuccessURL: base + "/success",
		CancelURL:  base + "/cancel",
		BaseURL:    base,
	}

	resp, err := s.gateway.CreateSession(ctx, intent)
	if err != nil {
		if !model.IsValidationError(err) && !errors.Is(err, model.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	return resp, nil
}
