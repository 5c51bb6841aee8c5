package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront-service/pkg/database"
)

func seedCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo categories and products",
		Long: `Insert the demo catalog. Existing categories (by name) and products
(by SKU) are left untouched, so the command can be run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			conn, err := database.InitDB(appConfig)
			if err != nil {
				return err
			}

			if migrate {
				if err := database.Migrate(conn); err != nil {
					return err
				}
			}

			stats, err := database.Seed(conn)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			log.Info("Catalog seeded",
				zap.Int("categories", stats.Categories),
				zap.Int("products", stats.Products))
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d categories, %d products\n", stats.Categories, stats.Products)
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "run migrations before seeding")
	return cmd
}
