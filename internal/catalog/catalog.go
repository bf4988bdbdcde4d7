// Package catalog provides the product sets used to seed the storefront catalogue.
package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"storefront/internal/model"
)

// ErrEmptyCatalog is returned when a seed source holds no products.
var ErrEmptyCatalog = errors.New("seed catalogue is empty")

// Loader reads a seed catalogue by name.
type Loader interface {
	// Load returns the products held by the named source. An empty name selects the built-in set.
	Load(ctx context.Context, name string) ([]model.Product, error)
}

// seedProduct is the on-disk shape of a seed entry.
type seedProduct struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	PriceCents  int64  `json:"price_cents"`
}

// DefaultProducts returns the four sample products the storefront ships with.
func DefaultProducts() []model.Product {
	return []model.Product{
		{Name: "Blue Tee", Description: "Soft cotton tee in blue", Image: "/images/blue-tee.jpg", PriceCents: 1500},
		{Name: "Red Hoodie", Description: "Cozy hoodie in red", Image: "/images/red-hoodie.jpg", PriceCents: 4500},
		{Name: "Canvas Tote", Description: "Sturdy tote bag", Image: "/images/tote.jpg", PriceCents: 2500},
		{Name: "Cap", Description: "Adjustable cap", Image: "/images/cap.jpg", PriceCents: 1800},
	}
}

// Decode reads a JSON array of seed products, transparently gunzipping compressed input.
func Decode(r io.Reader) ([]model.Product, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var entries []seedProduct
	if err := json.NewDecoder(src).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode seed catalogue: %w", err)
	}

	if len(entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	products := make([]model.Product, 0, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("seed product %d: name is required", i)
		}
		if e.PriceCents < 0 {
			return nil, fmt.Errorf("seed product %q: price_cents must not be negative", e.Name)
		}
		products = append(products, model.Product{
			Name:        e.Name,
			Description: e.Description,
			Image:       e.Image,
			PriceCents:  e.PriceCents,
		})
	}

	return products, nil
}

// Encode writes products in the seed file format Decode reads, gzipped when compress is set.
func Encode(w io.Writer, products []model.Product, compress bool) (err error) {
	if len(products) == 0 {
		return ErrEmptyCatalog
	}

	entries := make([]seedProduct, len(products))
	for i, p := range products {
		entries[i] = seedProduct{
			Name:        p.Name,
			Description: p.Description,
			Image:       p.Image,
			PriceCents:  p.PriceCents,
		}
	}

	if compress {
		gz := gzip.NewWriter(w)
		defer func() {
			if closeErr := gz.Close(); err == nil {
				err = closeErr
			}
		}()
		w = gz
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode seed catalogue: %w", err)
	}

	return nil
}
