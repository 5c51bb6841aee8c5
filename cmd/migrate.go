package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront-service/pkg/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
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

			if err := database.Migrate(conn); err != nil {
				return err
			}
			log.Info("Database migrated", zap.String("db_name", appConfig.DB.DBName))
			return nil
		},
	}
}
