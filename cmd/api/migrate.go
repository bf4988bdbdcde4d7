package main

import (
	"fmt"

	"storefront/internal/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			version, err := database.Migrate(cmd.Context(), a.pool, a.logger)
			if err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
			return nil
		},
	}
}
