package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront-service/pkg/config"
	"storefront-service/pkg/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Storefront backend: catalog, TriPay checkout and invoices",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and initializes the global logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.InitLogger(appConfig)
	return appConfig, logger.GetLogger(), nil
}
