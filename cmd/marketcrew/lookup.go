package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scttfrdmn/marketcrew/catalog"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <product>",
	Short: "Print the catalog records for a product.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product := strings.Join(args, " ")
		records := map[string]any{
			"product_data":        catalog.Product(product),
			"market_trends":       catalog.MarketTrends(product),
			"competitor_analysis": catalog.Competitors(product),
			"customer_feedback":   catalog.Feedback(product),
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}
