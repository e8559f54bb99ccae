package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/engine"
)

// View renders the active screen.
func (m *DashboardModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return RenderLoading(m.loading, "Loading recent listings...")
	case ViewStateError:
		return m.renderErrorView()
	case ViewStateList:
		return m.renderDashboard()
	default:
		return ""
	}
}

func (m *DashboardModel) renderDashboard() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		m.renderMarketPanel(),
		m.renderListings(),
		m.renderStatusBar(),
	)
}

// renderErrorView replaces the listing table with the collection error. The
// market panel keeps rendering from its own state.
func (m *DashboardModel) renderErrorView() string {
	message := "listing fetch failed"
	if m.err != nil {
		message = m.err.Error()
	}
	body := CriticalStyle.Render("Error: "+message) + "\n" +
		SubtleStyle.Render("press R to reload")
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		m.renderMarketPanel(),
		BoxStyle.Width(m.width-borderPadding).Render(body),
		m.renderStatusBar(),
	)
}

// renderTitleBar shows the product name with the snapshot stamp, or a
// reload notice while a superseding fetch is in flight.
func (m *DashboardModel) renderTitleBar() string {
	phase, snapshot, _ := m.session.CollectionState()
	title := HeaderStyle.Render("Capital Lens")
	switch {
	case phase == engine.PhaseLoading:
		return title + "  " + m.loading.View() + WarningStyle.Render(" reloading...")
	case snapshot != nil:
		return title + "  " + SubtleStyle.Render("updated "+snapshot.GeneratedAt.Format("15:04:05"))
	default:
		return title
	}
}

// renderMarketPanel renders the quote categories. A market failure replaces
// only this panel's body, never the listing table.
func (m *DashboardModel) renderMarketPanel() string {
	phase, overview, err := m.market.State()
	var body string
	switch {
	case phase == engine.PhaseError:
		detail := "market data unavailable"
		if err != nil {
			detail = "market data unavailable: " + err.Error()
		}
		body = CriticalStyle.Render(detail) + "\n" + SubtleStyle.Render("press R to reload")
	case overview != nil:
		body = RenderMarketOverview(overview)
		if phase == engine.PhaseLoading {
			body += "\n" + WarningStyle.Render("refreshing...")
		}
	default:
		body = m.loading.View() + " Loading market data..."
	}
	return BoxStyle.Width(m.width - borderPadding).Render(body)
}

func (m *DashboardModel) renderListings() string {
	if m.rows.ItemCount() == 0 {
		return TableHeaderStyle.Render(listingHeader()) + "\n" +
			SubtleStyle.Render("no recent listings")
	}

	rows := m.rows.View()
	count := fmt.Sprintf("%d listings", m.rows.ItemCount())
	if m.rows.VisibleFrom() > 0 || m.rows.VisibleTo() < m.rows.ItemCount() {
		count = fmt.Sprintf("%d listings (%d-%d shown)",
			m.rows.ItemCount(), m.rows.VisibleFrom()+1, m.rows.VisibleTo())
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		TableHeaderStyle.Render(listingHeader()),
		rows,
		SubtleStyle.Render(count),
	)
}

func (m *DashboardModel) renderStatusBar() string {
	return SubtleStyle.Render("[↑↓/jk] Move  [Enter/Space] Expand  [r] Retry summary  [R] Reload  [q] Quit")
}

// renderListing renders one table row, with the detail panel below it while
// the row is expanded.
func (m *DashboardModel) renderListing(item api.Listing, selected bool) string {
	line := listingLine(item)
	if selected {
		line = TableSelectedStyle.Render(line)
	}
	if !m.session.Expanded(item.Code) {
		return line
	}
	return line + "\n" + m.renderDetailPanel(item.Code)
}

// renderDetailPanel renders the expanded row's summary by its outcome
// phase.
func (m *DashboardModel) renderDetailPanel(code string) string {
	outcome := m.session.DetailFor(code)
	var body string
	switch outcome.Phase {
	case engine.PhaseLoading:
		body = m.loading.View() + " Generating summary..."
	case engine.PhaseError:
		detail := "summary unavailable"
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		body = CriticalStyle.Render(detail) + "\n" + SubtleStyle.Render("press r to retry")
	case engine.PhaseDone:
		body = renderSummaryBody(outcome.Payload)
	default:
		body = SubtleStyle.Render("summary queued...")
	}
	panel := BoxStyle.Width(m.width - detailIndent - borderPadding).Render(body)
	return lipgloss.NewStyle().MarginLeft(detailIndent).Render(panel)
}
