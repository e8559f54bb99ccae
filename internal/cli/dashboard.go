package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/engine"
	"github.com/capitalens/capitalens/internal/tui"
)

// NewDashboardCmd creates the "dashboard" command that opens the interactive
// terminal UI. Running capitalens with no arguments on a terminal does the
// same thing.
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive market dashboard",
		Long: `Open the full-screen dashboard: market overview panel on top, recent TSE
listings below. A listing expands in place to an AI summary of the
company's listing outline.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd)
		},
	}
}

// runDashboard wires the session engine to the TUI and blocks until quit.
func runDashboard(cmd *cobra.Command) error {
	ctx := cmd.Context()

	client := newAPIClient()
	if err := checkServerVersion(ctx, client); err != nil {
		if errors.Is(err, api.ErrVersionMismatch) {
			return err
		}
		// An unreachable server is not fatal here: the dashboard renders
		// fetch errors in place and R retries them.
		logger.Warn().Ctx(ctx).Err(err).Msg("version handshake failed")
	}

	session := engine.NewSession(client, client)
	defer session.Close()
	controller, events := tui.NewMarketController(client)
	defer controller.Close()

	model := tui.NewDashboardModel(session, controller, events)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
