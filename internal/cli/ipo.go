package cli

import (
	"github.com/spf13/cobra"
)

// newIPOCmd creates the ipo command group with list and summary subcommands.
func newIPOCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "ipo", Short: "Recent listing commands"}
	cmd.AddCommand(NewIPOListCmd(), NewIPOSummaryCmd())
	return cmd
}
