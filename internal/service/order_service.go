package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 200
)

// OrderOptions tunes the order recorder.
type OrderOptions struct {
	// Timeout bounds the whole recording transaction.
	Timeout time.Duration
	// Deduplicate records each provider event id at most once.
	Deduplicate bool
}

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	opts      OrderOptions
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, opts OrderOptions, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		opts:      opts,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// Record persists one paid order and its items in a single transaction. Unit prices are read from
// the catalogue inside that transaction; lines for unknown products are dropped.
func (s *orderService) Record(ctx context.Context, req model.RecordRequest) (orderID int64, err error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	log := s.logger.With().
		Str("event_id", req.EventID).
		Str("session_id", req.CheckoutSessionID).
		Logger()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")
		return 0, fmt.Errorf("%w: %w", model.ErrPersistenceFailure, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	byID := map[int64]model.Product{}
	if ids := pricing.UniqueIDs(req.Items); len(ids) > 0 {
		products, lookupErr := s.orderRepo.LockProducts(ctx, tx, ids)
		if lookupErr != nil {
			log.Error().Err(lookupErr).Msg("failed to resolve order products")
			err = fmt.Errorf("%w: %w", model.ErrPersistenceFailure, lookupErr)
			return 0, err
		}
		for _, p := range products {
			byID[p.ID] = p
		}
	}

	priced := pricing.Price(req.Items, byID)
	if len(priced.LineItems) == 0 {
		log.Warn().Int("lines", len(req.Items)).Msg("recording order without resolvable items")
	}
	if priced.TotalCents != req.TotalCents {
		log.Warn().
			Int64("total_cents", req.TotalCents).
			Int64("catalogue_total_cents", priced.TotalCents).
			Msg("recorded total differs from current catalogue prices")
	}

	order := &model.Order{
		Email:      req.Email,
		TotalCents: req.TotalCents,
		Status:     model.OrderStatusPaid,
	}
	if req.CheckoutSessionID != "" {
		sessionID := req.CheckoutSessionID
		order.CheckoutSessionID = &sessionID
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrPersistenceFailure, err)
	}

	items := make([]model.OrderItem, len(priced.LineItems))
	for i, li := range priced.LineItems {
		items[i] = model.OrderItem{
			OrderID:        order.ID,
			ProductID:      li.ProductID,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		log.Error().
			Err(err).
			Int64("order_id", order.ID).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return 0, fmt.Errorf("%w: %w", model.ErrPersistenceFailure, err)
	}

	if s.opts.Deduplicate && req.EventID != "" {
		claimed, claimErr := s.orderRepo.MarkEventProcessed(ctx, tx, req.EventID, order.ID)
		if claimErr != nil {
			err = fmt.Errorf("%w: %w", model.ErrPersistenceFailure, claimErr)
			return 0, err
		}
		if !claimed {
			log.Info().Msg("event already recorded")
			err = model.ErrDuplicateEvent
			return 0, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Error().Err(err).Int64("order_id", order.ID).Msg("failed to commit transaction")
		return 0, fmt.Errorf("%w: %w", model.ErrPersistenceFailure, err)
	}

	log.Info().
		Int64("order_id", order.ID).
		Int64("total_cents", order.TotalCents).
		Int("item_count", len(items)).
		Msg("order recorded")

	return order.ID, nil
}

// List retrieves orders newest first. Limit defaults to 50 and is capped at 200.
func (s *orderService) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	if limit <= 0 {
		limit = defaultOrderLimit
	}
	if limit > maxOrderLimit {
		limit = maxOrderLimit
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Int("offset", offset).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// isPersistenceFailure reports whether err came from the durable store.
func isPersistenceFailure(err error) bool {
	return errors.Is(err, model.ErrPersistenceFailure)
}
