// Package payment wraps the hosted checkout provider: session creation and completion events.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const (
	// MetadataCart and MetadataTotal are the session metadata keys echoed back on completion.
	MetadataCart  = "cart"
	MetadataTotal = "total_cents"

	// maxMetadataValue is the provider's limit on a single metadata value.
	maxMetadataValue = 500

	currency = "usd"

	placeholderSecretKey = "sk_test_placeholder"
)

// SessionCreator creates hosted checkout sessions.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Gateway is the checkout session gateway. Calls are bounded by a timeout and guarded by a
// circuit breaker; every provider failure surfaces as model.ErrUpstreamUnavailable.
type Gateway struct {
	sessions SessionCreator
	breaker  *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewGateway creates a gateway talking to the provider API configured in cfg.
func NewGateway(cfg config.StripeConfig, logger zerolog.Logger) *Gateway {
	key := cfg.SecretKey
	if key == "" {
		key = placeholderSecretKey
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     stripeLogger{logger: logger.With().Str("component", "stripe").Logger()},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	client := session.Client{
		B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Key: key,
	}

	return NewGatewayWithCreator(client, cfg, logger)
}

// NewGatewayWithCreator creates a gateway over an arbitrary session creator.
func NewGatewayWithCreator(sessions SessionCreator, cfg config.StripeConfig, logger zerolog.Logger) *Gateway {
	logger = logger.With().Str("component", "checkout-gateway").Logger()

	breaker := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:    "checkout-sessions",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.BreakerFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Gateway{
		sessions: sessions,
		breaker:  breaker,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// CreateSession opens a hosted checkout session for the priced intent.
func (g *Gateway) CreateSession(ctx context.Context, intent model.CheckoutIntent) (*model.CheckoutResponse, error) {
	if len(intent.Priced.LineItems) == 0 {
		return nil, model.ErrEmptyCart
	}

	cart, err := EncodeCart(intent.Cart)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems(intent),
		SuccessURL: stripe.String(intent.SuccessURL),
		CancelURL:  stripe.String(intent.CancelURL),
	}
	if intent.Email != "" {
		params.CustomerEmail = stripe.String(intent.Email)
	}
	params.AddMetadata(MetadataCart, cart)
	params.AddMetadata(MetadataTotal, strconv.FormatInt(intent.Priced.TotalCents, 10))

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	params.Context = callCtx

	start := time.Now()
	sess, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		s, err := g.sessions.New(params)
		if err != nil {
			return nil, err
		}
		if s == nil || s.ID == "" || s.URL == "" {
			return nil, errors.New("provider returned an incomplete session")
		}
		return s, nil
	})
	if err != nil {
		g.logger.Error().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Int("line_items", len(intent.Priced.LineItems)).
			Msg("checkout session creation failed")
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	g.logger.Info().
		Str("session_id", sess.ID).
		Int64("total_cents", intent.Priced.TotalCents).
		Int("line_items", len(intent.Priced.LineItems)).
		Dur("elapsed", time.Since(start)).
		Msg("checkout session created")

	return &model.CheckoutResponse{ID: sess.ID, URL: sess.URL}, nil
}

// EncodeCart serialises cart lines for session metadata.
func EncodeCart(cart []model.CartLine) (string, error) {
	if cart == nil {
		cart = []model.CartLine{}
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart: %w", err)
	}

	if len(data) > maxMetadataValue {
		return "", model.ErrCartTooLarge
	}

	return string(data), nil
}

func lineItems(intent model.CheckoutIntent) []*stripe.CheckoutSessionLineItemParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(intent.Priced.LineItems))
	for _, li := range intent.Priced.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if image := AbsoluteURL(intent.BaseURL, li.Image); image != "" {
			product.Images = []*string{stripe.String(image)}
		}

		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitPriceCents),
			},
			Quantity: stripe.Int64(int64(li.Quantity)),
		})
	}
	return items
}

// AbsoluteURL resolves a catalogue image path against base. It returns "" when no absolute URL
// can be formed, since the provider rejects relative image URLs.
func AbsoluteURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// stripeLogger routes provider client logs through zerolog.
type stripeLogger struct {
	logger zerolog.Logger
}

func (l stripeLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l stripeLogger) Infof(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l stripeLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l stripeLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
