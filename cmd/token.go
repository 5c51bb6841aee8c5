package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront-service/pkg/config"
	"storefront-service/pkg/jwtutil"
)

func tokenCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "token [email]",
		Short: "Mint a catalog operator token",
		Long: `Print a signed bearer token for the catalog write routes.

Requires JWT_SIGNING_KEY. Example:
  storefront token ops@example.com --role admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load()
			if err != nil {
				return err
			}
			if !appConfig.JWT.Enabled() {
				return fmt.Errorf("JWT_SIGNING_KEY is not set")
			}

			jwtutil.Initialize(&appConfig.JWT)
			token, err := jwtutil.GenerateToken(args[0], role)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "admin", "role claim")
	return cmd
}
