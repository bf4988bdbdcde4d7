package service

import (
	"context"
	"errors"

	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/rs/zerolog"
)

// Outcome is the terminal state of one processed notification.
type Outcome string

const (
	// OutcomeRecorded means a new order was persisted.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeIgnored means the event kind is not acted on.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeLoggedFailure means extraction or recording failed and the failure was logged.
	OutcomeLoggedFailure Outcome = "logged_failure"
	// OutcomeDuplicate means the event id was already recorded.
	OutcomeDuplicate Outcome = "duplicate"
)

// FulfillmentResult describes what happened to an acknowledged notification.
type FulfillmentResult struct {
	Outcome Outcome
	EventID string
	OrderID int64
}

// EventVerifier authenticates and decodes provider notifications.
type EventVerifier interface {
	Verify(payload []byte, signature string) (payment.Event, error)
}

// fulfillmentService implements FulfillmentService.
type fulfillmentService struct {
	verifier     EventVerifier
	orders       OrderService
	ackOnFailure bool
	logger       zerolog.Logger
}

// NewFulfillmentService creates the notification pipeline. When ackOnFailure is set a persistence
// failure is logged and acknowledged; otherwise it is returned so the provider redelivers.
func NewFulfillmentService(verifier EventVerifier, orders OrderService, ackOnFailure bool, logger zerolog.Logger) FulfillmentService {
	return &fulfillmentService{
		verifier:     verifier,
		orders:       orders,
		ackOnFailure: ackOnFailure,
		logger:       logger.With().Str("service", "fulfillment").Logger(),
	}
}

// Handle verifies, classifies and records one notification.
func (s *fulfillmentService) Handle(ctx context.Context, payload []byte, signature string) (FulfillmentResult, error) {
	evt, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(payload)).Msg("rejected notification")
		return FulfillmentResult{}, err
	}

	log := s.logger.With().Str("event_id", evt.EventID()).Str("event_type", evt.EventType()).Logger()

	var completed payment.CheckoutCompleted
	switch e := evt.(type) {
	case payment.CheckoutCompleted:
		completed = e
	default:
		log.Debug().Msg("ignoring event")
		return FulfillmentResult{Outcome: OutcomeIgnored, EventID: evt.EventID()}, nil
	}

	req, err := completed.RecordRequest()
	if err != nil {
		log.Error().Err(err).Msg("failed to extract order from completed checkout")
		return FulfillmentResult{Outcome: OutcomeLoggedFailure, EventID: evt.EventID()}, nil
	}

	orderID, err := s.orders.Record(ctx, req)
	switch {
	case err == nil:
		return FulfillmentResult{Outcome: OutcomeRecorded, EventID: evt.EventID(), OrderID: orderID}, nil
	case errors.Is(err, model.ErrDuplicateEvent):
		return FulfillmentResult{Outcome: OutcomeDuplicate, EventID: evt.EventID()}, nil
	}

	log.Error().
		Err(err).
		Str("session_id", req.CheckoutSessionID).
		Bool("acknowledged", s.ackOnFailure).
		Msg("failed to record order")

	if s.ackOnFailure {
		return FulfillmentResult{Outcome: OutcomeLoggedFailure, EventID: evt.EventID()}, nil
	}

	if !isPersistenceFailure(err) {
		return FulfillmentResult{}, errors.Join(model.ErrPersistenceFailure, err)
	}
	return FulfillmentResult{}, err
}
