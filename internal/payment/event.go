package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/model"

	"github.com/stripe/stripe-go/v82"
)

// Event is a verified provider notification. It is either CheckoutCompleted or Unhandled.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

// CheckoutCompleted reports a paid hosted checkout session. The session object is kept raw until
// RecordRequest extracts it, so a malformed payload is an extraction failure, not a rejection.
type CheckoutCompleted struct {
	ID     string
	Object json.RawMessage
}

func (e CheckoutCompleted) EventID() string { return e.ID }

func (e CheckoutCompleted) EventType() string {
	return string(stripe.EventTypeCheckoutSessionCompleted)
}

func (CheckoutCompleted) isEvent() {}

// Unhandled is any event kind this service does not act on.
type Unhandled struct {
	ID   string
	Type string
}

func (e Unhandled) EventID() string   { return e.ID }
func (e Unhandled) EventType() string { return e.Type }
func (Unhandled) isEvent()            {}

// classify turns a decoded provider event into the Event variant.
func classify(evt *stripe.Event) Event {
	if evt.Type != stripe.EventTypeCheckoutSessionCompleted {
		return Unhandled{ID: evt.ID, Type: string(evt.Type)}
	}

	var object json.RawMessage
	if evt.Data != nil {
		object = evt.Data.Raw
	}
	return CheckoutCompleted{ID: evt.ID, Object: object}
}

// RecordRequest extracts the order to record from the completed session. It fails with
// model.ErrMalformedEvent when the session, its cart or its total cannot be read.
func (e CheckoutCompleted) RecordRequest() (model.RecordRequest, error) {
	if len(e.Object) == 0 {
		return model.RecordRequest{}, fmt.Errorf("%w: event has no session object", model.ErrMalformedEvent)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(e.Object, &sess); err != nil {
		return model.RecordRequest{}, fmt.Errorf("%w: session: %v", model.ErrMalformedEvent, err)
	}

	rawCart, ok := sess.Metadata[MetadataCart]
	if !ok {
		return model.RecordRequest{}, fmt.Errorf("%w: metadata has no %s", model.ErrMalformedEvent, MetadataCart)
	}

	var cart []model.CartLine
	if err := json.Unmarshal([]byte(rawCart), &cart); err != nil {
		return model.RecordRequest{}, fmt.Errorf("%w: cart: %v", model.ErrMalformedEvent, err)
	}

	rawTotal, ok := sess.Metadata[MetadataTotal]
	if !ok {
		return model.RecordRequest{}, fmt.Errorf("%w: metadata has no %s", model.ErrMalformedEvent, MetadataTotal)
	}

	total, err := strconv.ParseInt(strings.TrimSpace(rawTotal), 10, 64)
	if err != nil || total < 0 {
		return model.RecordRequest{}, fmt.Errorf("%w: total_cents %q is not a non-negative integer", model.ErrMalformedEvent, rawTotal)
	}

	return model.RecordRequest{
		EventID:           e.ID,
		CheckoutSessionID: sess.ID,
		Email:             customerEmail(&sess),
		TotalCents:        total,
		Items:             cart,
	}, nil
}

// customerEmail prefers the email collected during checkout over the one the session was opened with.
func customerEmail(sess *stripe.CheckoutSession) *string {
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email := sess.CustomerDetails.Email
		return &email
	}
	if sess.CustomerEmail != "" {
		email := sess.CustomerEmail
		return &email
	}
	return nil
}
