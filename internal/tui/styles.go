package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewState identifies the dashboard's top-level screen.
type ViewState int

const (
	// ViewStateLoading is the initial screen before the first listing
	// snapshot lands.
	ViewStateLoading ViewState = iota
	// ViewStateList is the main dashboard: market panel above the listing
	// table.
	ViewStateList
	// ViewStateError replaces the listing table after a collection fetch
	// failure.
	ViewStateError
	// ViewStateQuitting renders nothing while the program tears down.
	ViewStateQuitting
)

// String returns the state name for logs and tests.
func (s ViewState) String() string {
	switch s {
	case ViewStateLoading:
		return "loading"
	case ViewStateList:
		return "list"
	case ViewStateError:
		return "error"
	case ViewStateQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}

// Key strings as delivered by tea.KeyMsg.String().
const (
	keyQuit   = "q"
	keyCtrlC  = "ctrl+c"
	keyEnter  = "enter"
	keySpace  = " "
	keyRetry  = "r"
	keyReload = "R"
)

// Layout constants.
const (
	defaultWidth  = 100
	defaultHeight = 32
	borderPadding = 2
	detailIndent  = 2
	minListHeight = 4

	// listChromeReserve is the height taken by everything around the
	// listing rows: title bar, market panel, table header, count line,
	// and status bar.
	listChromeReserve = 14

	listingDateWidth    = 10
	listingCodeWidth    = 6
	listingCompanyWidth = 28
	listingMarketWidth  = 12
	listingOfferWidth   = 10
)

// Color palette (256-color codes).
const (
	ColorHeader   = lipgloss.Color("39")
	ColorLabel    = lipgloss.Color("245")
	ColorValue    = lipgloss.Color("252")
	ColorMuted    = lipgloss.Color("240")
	ColorBorder   = lipgloss.Color("240")
	ColorOK       = lipgloss.Color("42")
	ColorWarning  = lipgloss.Color("214")
	ColorCritical = lipgloss.Color("196")
	ColorInfo     = lipgloss.Color("75")
	ColorSpinner  = lipgloss.Color("205")
)

// Icons for signed changes.
const (
	IconArrowUp    = "↑"
	IconArrowDown  = "↓"
	IconArrowRight = "→"
)

// Shared styles.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue)
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	InfoStyle     = lipgloss.NewStyle().Foreground(ColorInfo)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorCritical)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorBorder).
				BorderBottom(true).
				Bold(true)

	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)

// LoadingState wraps the spinner shared by every loading surface.
type LoadingState struct {
	spinner spinner.Model
}

// NewLoadingState builds the spinner with the dashboard palette.
func NewLoadingState() *LoadingState {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorSpinner)
	return &LoadingState{spinner: sp}
}

// Init returns the command that starts the spinner ticking.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner and returns the follow-up tick command.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// View returns the current spinner frame.
func (l *LoadingState) View() string {
	return l.spinner.View()
}

// RenderLoading renders a full-screen loading line.
func RenderLoading(loading *LoadingState, message string) string {
	return fmt.Sprintf("\n  %s %s\n", loading.View(), message)
}
