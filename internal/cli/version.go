package cli

import (
	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/pkg/version"
)

// NewVersionCmd creates the "version" command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("capitalens %s (api %s)\n", version.GetVersion(), version.APIVersion)
		},
	}
}
