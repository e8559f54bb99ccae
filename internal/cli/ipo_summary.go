package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/internal/tui"
)

// NewIPOSummaryCmd creates the "ipo summary" command.
func NewIPOSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <code>",
		Short: "Summarize a listing's outline document",
		Long: `Fetch the AI-generated summary of a company's listing outline. The first
request for a code generates the summary; later requests within the cache
window are served from the server cache.`,
		Example: `  # Summarize the listing with securities code 245A
  capitalens ipo summary 245A`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIPOSummary(cmd, args[0])
		},
	}
}

func runIPOSummary(cmd *cobra.Command, code string) error {
	ctx := cmd.Context()

	client := newAPIClient()
	if err := checkServerVersion(ctx, client); err != nil {
		return err
	}

	summary, err := client.ListingSummary(ctx, code)
	if err != nil {
		return fmt.Errorf("fetching summary for %s: %w", code, err)
	}

	cmd.Println(tui.RenderSummary(summary))
	return nil
}
