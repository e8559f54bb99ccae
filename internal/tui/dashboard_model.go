// Package tui implements the interactive terminal dashboard: a market
// overview panel above an expandable table of recent listings, driven by
// the engine session's event channel.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/engine"
	listview "github.com/capitalens/capitalens/internal/tui/list"
)

// MarketSource loads the market overview snapshot.
type MarketSource interface {
	MarketOverview(ctx context.Context) (*api.MarketOverview, error)
}

// sessionEventMsg reports a listing session state transition.
type sessionEventMsg struct{}

// marketEventMsg reports a market controller state transition.
type marketEventMsg struct{}

// DashboardModel is the Bubble Tea model for the dashboard screen.
type DashboardModel struct {
	session      *engine.Session
	market       *engine.Controller[*api.MarketOverview]
	marketEvents <-chan struct{}

	state ViewState
	err   error

	rows    *listview.VirtualListModel[api.Listing]
	loading *LoadingState

	width  int
	height int
}

// NewDashboardModel builds the dashboard over a listing session and a
// market panel controller. marketEvents is the controller's notification
// channel as returned by NewMarketController.
func NewDashboardModel(
	session *engine.Session,
	market *engine.Controller[*api.MarketOverview],
	marketEvents <-chan struct{},
) *DashboardModel {
	m := &DashboardModel{
		session:      session,
		market:       market,
		marketEvents: marketEvents,
		state:        ViewStateLoading,
		loading:      NewLoadingState(),
		width:        defaultWidth,
		height:       defaultHeight,
	}
	m.rows = listview.NewVirtualListModel(nil, m.listHeight(), m.width, m.renderListing)
	return m
}

// NewMarketController builds the market panel controller with its own
// coalescing notification channel, mirroring the session's Events contract.
func NewMarketController(src MarketSource) (*engine.Controller[*api.MarketOverview], <-chan struct{}) {
	events := make(chan struct{}, 1)
	notify := func() {
		select {
		case events <- struct{}{}:
		default:
		}
	}
	return engine.NewController(src.MarketOverview, notify), events
}

// Init starts the spinner, the initial fetches, and both event waits.
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.loading.Init(),
		m.fetchCmd(),
		waitForEvent(m.session.Events(), sessionEventMsg{}),
		waitForEvent(m.marketEvents, marketEventMsg{}),
	)
}

// waitForEvent resolves with msg after the next signal on events. Update
// re-queues the command after each delivery so the channel always has a
// reader.
func waitForEvent(events <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-events
		return msg
	}
}

// fetchCmd triggers both panel fetches off the UI goroutine.
func (m *DashboardModel) fetchCmd() tea.Cmd {
	// Capture references before the goroutine to avoid accessing model
	// fields concurrently.
	session := m.session
	market := m.market
	return func() tea.Msg {
		session.Fetch()
		market.Fetch()
		return nil
	}
}

// Update handles messages and updates the model state.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rows.SetSize(m.listHeight(), m.width)
		return m, nil
	case spinner.TickMsg:
		return m, m.loading.Update(msg)
	case sessionEventMsg:
		return m.handleSessionEvent()
	case marketEventMsg:
		// Market state is read back at render time, waking up is enough.
		return m, waitForEvent(m.marketEvents, marketEventMsg{})
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

// handleSessionEvent re-reads the session projections after a transition.
// Signals coalesce, so every projection is re-read on each wakeup.
func (m *DashboardModel) handleSessionEvent() (tea.Model, tea.Cmd) {
	phase, snapshot, err := m.session.CollectionState()
	switch phase {
	case engine.PhaseDone:
		m.state = ViewStateList
		m.err = nil
		m.rows.SetItems(snapshot.Items)
	case engine.PhaseError:
		m.state = ViewStateError
		m.err = err
	case engine.PhaseLoading:
		// A reload keeps the previous table on screen until it resolves.
		if snapshot == nil {
			m.state = ViewStateLoading
		}
	case engine.PhaseIdle:
	}
	return m, waitForEvent(m.session.Events(), sessionEventMsg{})
}

// handleKeyMsg routes keys. Quit and reload work on every screen, the rest
// only on the listing table.
func (m *DashboardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		m.session.Close()
		m.market.Close()
		return m, tea.Quit
	case keyReload:
		return m, m.fetchCmd()
	}

	if m.state != ViewStateList {
		return m, nil
	}

	switch msg.String() {
	case keyEnter, keySpace:
		if item := m.rows.SelectedItem(); item != nil {
			m.session.Toggle(item.Code)
		}
		return m, nil
	case keyRetry:
		if item := m.rows.SelectedItem(); item != nil {
			if m.session.Expanded(item.Code) && m.session.DetailFor(item.Code).Phase == engine.PhaseError {
				m.session.RetryDetail(item.Code)
			}
		}
		return m, nil
	}

	updated, cmd := m.rows.Update(msg)
	if rows, ok := updated.(*listview.VirtualListModel[api.Listing]); ok {
		m.rows = rows
	}
	return m, cmd
}

// listHeight is the line budget left for the listing rows after the market
// panel and chrome.
func (m *DashboardModel) listHeight() int {
	h := m.height - listChromeReserve
	if h < minListHeight {
		return minListHeight
	}
	return h
}
