package catalog

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for JSON seed files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a JSON (optionally gzipped) seed file.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Product, error) {
	if filePath == "" {
		return DefaultProducts(), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", filePath).Msg("loading seed catalogue")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open seed catalogue")
		return nil, fmt.Errorf("failed to open seed catalogue %s: %w", filePath, err)
	}
	defer file.Close()

	products, err := Decode(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read seed catalogue")
		return nil, fmt.Errorf("seed catalogue %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("products_loaded", len(products)).
		Msg("seed catalogue loaded successfully")

	return products, nil
}
