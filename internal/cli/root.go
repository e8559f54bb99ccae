package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/capitalens/capitalens/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// rootLogger is the unscoped logger commands hand to subsystems.
var rootLogger zerolog.Logger //nolint:gochecknoglobals // Shared with the serve command for component loggers

// NewRootCmd creates the root Cobra command for the capitalens CLI.
// It wires up configuration, logging, and the dashboard, market, ipo, serve,
// and version subcommands. Invoked bare on a terminal it opens the dashboard;
// piped it prints help instead.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "capitalens",
		Short:   "Market dashboard and IPO research in the terminal",
		Long:    "Capital Lens: Japanese market overview, recent TSE listings, and AI outline summaries in the terminal",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isTerminal(os.Stdout) {
				return runDashboard(cmd)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging to the console")
	cmd.PersistentFlags().String("api-url", "", "aggregation server base URL (overrides config)")
	cmd.PersistentFlags().Int("timeout", 0, "API request timeout in seconds (overrides config)")
	cmd.PersistentFlags().Bool("skip-version-check", false, "skip the server API version handshake")
	cmd.PersistentFlags().String("config", "", "path to a config file (default $CAPITALENS_HOME/config.yaml)")

	cmd.AddCommand(NewDashboardCmd(), NewMarketCmd(), newIPOCmd(), NewServeCmd(), NewVersionCmd())

	return cmd
}

const rootCmdExample = `  # Open the interactive dashboard
  capitalens

  # One-shot market overview (pipe friendly)
  capitalens market

  # Recent listings, cheapest offerings first
  capitalens ipo list --sort price:asc --limit 10

  # Summarize one listing's outline document
  capitalens ipo summary 245A

  # Run the aggregation server
  capitalens serve --addr :8000`
