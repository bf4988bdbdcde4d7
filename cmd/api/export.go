package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storefront/internal/catalog"

	"github.com/spf13/cobra"
)

func exportCatalogCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-catalog",
		Short: "Write the built-in products as a seed catalogue file",
		Long: `Write the built-in products in the CATALOG_SEED_FILE format.

A path ending in .gz is gzipped. The file can be edited and uploaded under S3_PREFIX.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer file.Close()

			products := catalog.DefaultProducts()
			if err := catalog.Encode(file, products, strings.HasSuffix(out, ".gz")); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d products\n", out, len(products))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "data/catalog/products.json.gz", "output path")

	return cmd
}
