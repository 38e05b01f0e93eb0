package main

import (
	"fmt"

	"github.com/aretw0/canopy/internal/cli"
	canopyhttp "github.com/aretw0/canopy/pkg/adapters/http"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the design element catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		format, _ := cmd.Flags().GetString("format")

		var cats []domain.Category
		if serverURL != "" {
			c, err := canopyhttp.NewClient(serverURL, canopyhttp.WithClientLogger(logger)).Catalog(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch catalog: %w", err)
			}
			cats = c
		} else {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			cats = reg.Categories()
		}
		return cli.Print(cmd.OutOrStdout(), format, cats)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().String("server", "", "Base URL of a running canopy server")
	catalogCmd.Flags().StringP("format", "f", "yaml", "Output format: json or yaml")
}
