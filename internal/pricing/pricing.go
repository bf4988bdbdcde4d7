// Package pricing recomputes cart totals from the catalogue. Client-supplied prices are never read.
package pricing

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// ProductLookup resolves product ids against the catalogue.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}

// Engine prices carts against a catalogue snapshot taken per call.
type Engine struct {
	products ProductLookup
	logger   zerolog.Logger
}

// NewEngine creates a pricing engine over products.
func NewEngine(products ProductLookup, logger zerolog.Logger) *Engine {
	return &Engine{
		products: products,
		logger:   logger.With().Str("component", "pricing").Logger(),
	}
}

// Price resolves the cart's product ids and prices it.
func (e *Engine) Price(ctx context.Context, cart []model.CartLine) (model.PricingResult, error) {
	snapshot, err := e.Snapshot(ctx, cart)
	if err != nil {
		return model.PricingResult{}, err
	}

	result := Price(cart, snapshot)

	if dropped := len(cart) - len(result.LineItems); dropped > 0 {
		e.logger.Debug().
			Int("lines", len(cart)).
			Int("dropped", dropped).
			Msg("dropped cart lines with unknown products")
	}

	return result, nil
}

// Snapshot loads the catalogue entries referenced by cart, keyed by id.
func (e *Engine) Snapshot(ctx context.Context, cart []model.CartLine) (map[int64]model.Product, error) {
	ids := UniqueIDs(cart)
	if len(ids) == 0 {
		return map[int64]model.Product{}, nil
	}

	products, err := e.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}

	snapshot := make(map[int64]model.Product, len(products))
	for _, p := range products {
		snapshot[p.ID] = p
	}
	return snapshot, nil
}

// Price is the pure pricing function. Lines whose product is missing from catalog are dropped and
// every quantity is clamped to [model.MinQuantity, model.MaxQuantity]. Line order follows the cart.
func Price(cart []model.CartLine, catalog map[int64]model.Product) model.PricingResult {
	result := model.PricingResult{LineItems: []model.PricedLineItem{}}

	for _, line := range cart {
		p, ok := catalog[line.ProductID]
		if !ok {
			continue
		}

		qty := model.ClampQuantity(line.Quantity)
		lineTotal := p.PriceCents * int64(qty)

		result.LineItems = append(result.LineItems, model.PricedLineItem{
			ProductID:      p.ID,
			Name:           p.Name,
			Image:          p.Image,
			UnitPriceCents: p.PriceCents,
			Quantity:       qty,
			LineTotalCents: lineTotal,
		})
		result.TotalCents += lineTotal
	}

	return result
}

// UniqueIDs returns the positive product ids referenced by cart, in first-seen order.
func UniqueIDs(cart []model.CartLine) []int64 {
	seen := make(map[int64]struct{}, len(cart))
	ids := make([]int64, 0, len(cart))
	for _, line := range cart {
		if line.ProductID <= 0 {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
