package main

import (
	"fmt"

	"storefront/internal/database"
	"storefront/internal/service"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the product catalogue",
		Long: `Seed the product catalogue from CATALOG_SEED_FILE (or the built-in products).

Without --reset an existing catalogue is left untouched. With --reset the catalogue is
replaced; this fails once orders reference existing products.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := database.Migrate(ctx, a.pool, a.logger); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			products := service.NewProductService(a.productRepository(), a.seedLoader(ctx), a.cfg.Catalog.SeedFile, a.logger)

			if reset {
				n, err := products.Reseed(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products.\n", n)
				return nil
			}

			msg, err := products.Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "replace the existing catalogue")

	return cmd
}
