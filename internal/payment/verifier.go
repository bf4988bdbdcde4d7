package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the provider's signature over the raw request body.
const SignatureHeader = "Stripe-Signature"

// Verifier authenticates provider notifications.
//
// Without a signing secret the verifier runs in a degraded mode: bodies are parsed as trusted and
// anyone able to reach the endpoint can forge completion events. NewVerifier logs a warning when
// that mode is selected.
type Verifier struct {
	secret    string
	tolerance time.Duration
	logger    zerolog.Logger
}

// NewVerifier creates a verifier from the webhook configuration.
func NewVerifier(cfg config.WebhookConfig, logger zerolog.Logger) *Verifier {
	v := &Verifier{
		secret:    cfg.SigningSecret,
		tolerance: cfg.Tolerance,
		logger:    logger.With().Str("component", "event-verifier").Logger(),
	}

	if !v.Authenticated() {
		v.logger.Warn().Msg("no webhook signing secret configured, events are accepted without verification")
	}

	return v
}

// Authenticated reports whether signatures are checked.
func (v *Verifier) Authenticated() bool {
	return v.secret != ""
}

// Verify checks the signature header against the raw body and decodes the event.
// It returns model.ErrInvalidSignature when the signature does not match and
// model.ErrMalformedEvent when the body is not a provider event.
func (v *Verifier) Verify(payload []byte, header string) (Event, error) {
	if v.Authenticated() {
		if err := webhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.tolerance); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidSignature, err)
		}
	}

	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedEvent, err)
	}

	if evt.Type == "" {
		return nil, fmt.Errorf("%w: event has no type", model.ErrMalformedEvent)
	}

	return classify(&evt), nil
}
