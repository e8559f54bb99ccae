package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/internal/tui"
)

// NewMarketCmd creates the "market" command printing a one-shot overview.
func NewMarketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Print the market overview",
		Long: `Fetch and print the aggregated market overview: indices, risk indicators,
bonds, FX, and commodities.`,
		RunE: runMarket,
	}
}

func runMarket(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	client := newAPIClient()
	if err := checkServerVersion(ctx, client); err != nil {
		return err
	}

	overview, err := client.MarketOverview(ctx)
	if err != nil {
		return fmt.Errorf("fetching market overview: %w", err)
	}

	cmd.Println(tui.RenderMarketOverview(overview))
	cmd.Printf("updated %s\n", overview.GeneratedAt.Format(time.RFC3339))
	return nil
}
