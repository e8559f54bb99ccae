package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one item. The returned string may span several lines
// when the item is expanded.
type RenderFunc[T any] func(item T, selected bool) string

// VirtualListModel renders the window of items that fits the viewport's
// line budget. Item heights vary per render, so the window is measured in
// lines rather than rows.
type VirtualListModel[T any] struct {
	// items contains all list items
	items []T

	// renderFunc renders a single item
	renderFunc RenderFunc[T]

	// selected is the currently selected item index (0-based)
	selected int

	// visibleFrom is the first rendered item index, valid after View
	visibleFrom int

	// visibleTo is the last rendered item index (exclusive), valid after View
	visibleTo int

	// height is the viewport line budget
	height int

	// width is the viewport width in columns
	width int
}

// NewVirtualListModel creates a new list model.
// items: the complete list of items to display.
// height: viewport line budget.
// width: viewport width in columns.
// renderFunc: function to render each item.
func NewVirtualListModel[T any](items []T, height, width int, renderFunc RenderFunc[T]) *VirtualListModel[T] {
	return &VirtualListModel[T]{
		items:      items,
		renderFunc: renderFunc,
		height:     height,
		width:      width,
	}
}

// Init initializes the model (required for tea.Model interface).
func (m *VirtualListModel[T]) Init() tea.Cmd {
	return nil
}

// Update handles keyboard and resize messages.
func (m *VirtualListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg), nil
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.width = msg.Width
		return m, nil
	}

	return m, nil
}

// handleKeyMsg processes keyboard input for navigation.
//
//nolint:exhaustive // Navigation handles a fixed subset of key types.
func (m *VirtualListModel[T]) handleKeyMsg(msg tea.KeyMsg) tea.Model {
	if len(m.items) == 0 {
		return m
	}

	switch msg.Type {
	case tea.KeyUp:
		m.move(-1)
	case tea.KeyDown:
		m.move(1)
	case tea.KeyPgUp:
		m.move(-m.height)
	case tea.KeyPgDown:
		m.move(m.height)
	case tea.KeyHome:
		m.SetSelected(0)
	case tea.KeyEnd:
		m.SetSelected(len(m.items) - 1)
	case tea.KeyRunes:
		// Vim-style navigation.
		if len(msg.Runes) == 0 {
			break
		}
		switch msg.Runes[0] {
		case 'j':
			m.move(1)
		case 'k':
			m.move(-1)
		}
	}

	return m
}

func (m *VirtualListModel[T]) move(delta int) {
	m.SetSelected(m.selected + delta)
}

// View renders the selected item and as many neighbors as the line budget
// allows, growing the window evenly above and below the selection.
func (m *VirtualListModel[T]) View() string {
	if len(m.items) == 0 {
		m.visibleFrom, m.visibleTo = 0, 0
		return ""
	}

	views := map[int]string{m.selected: m.renderFunc(m.items[m.selected], true)}
	top, bottom := m.selected, m.selected
	used := lineCount(views[m.selected])
	topOpen, bottomOpen := true, true

	for used < m.height {
		grew := false
		if topOpen {
			if top == 0 {
				topOpen = false
			} else if v := m.renderFunc(m.items[top-1], false); used+lineCount(v) <= m.height {
				top--
				views[top] = v
				used += lineCount(v)
				grew = true
			} else {
				topOpen = false
			}
		}
		if bottomOpen && used < m.height {
			if bottom == len(m.items)-1 {
				bottomOpen = false
			} else if v := m.renderFunc(m.items[bottom+1], false); used+lineCount(v) <= m.height {
				bottom++
				views[bottom] = v
				used += lineCount(v)
				grew = true
			} else {
				bottomOpen = false
			}
		}
		if !grew {
			break
		}
	}

	m.visibleFrom = top
	m.visibleTo = bottom + 1

	lines := make([]string, 0, m.visibleTo-m.visibleFrom)
	for i := top; i <= bottom; i++ {
		lines = append(lines, views[i])
	}
	return strings.Join(lines, "\n")
}

// SetItems replaces the items, clamping the selection into the new bounds.
func (m *VirtualListModel[T]) SetItems(items []T) {
	m.items = items
	m.SetSelected(m.selected)
}

// SetSize updates the viewport line budget and width.
func (m *VirtualListModel[T]) SetSize(height, width int) {
	m.height = height
	m.width = width
}

// ItemCount returns the total number of items in the list.
func (m *VirtualListModel[T]) ItemCount() int {
	return len(m.items)
}

// Selected returns the currently selected item index.
func (m *VirtualListModel[T]) Selected() int {
	return m.selected
}

// SetSelected sets the selected item index, capping to valid bounds.
func (m *VirtualListModel[T]) SetSelected(index int) {
	if len(m.items) == 0 {
		m.selected = 0
		return
	}

	switch {
	case index < 0:
		m.selected = 0
	case index >= len(m.items):
		m.selected = len(m.items) - 1
	default:
		m.selected = index
	}
}

// SelectedItem returns the currently selected item, nil when the list is
// empty.
func (m *VirtualListModel[T]) SelectedItem() *T {
	if len(m.items) == 0 {
		return nil
	}
	return &m.items[m.selected]
}

// VisibleFrom returns the first rendered item index (inclusive).
func (m *VirtualListModel[T]) VisibleFrom() int {
	return m.visibleFrom
}

// VisibleTo returns the last rendered item index (exclusive).
func (m *VirtualListModel[T]) VisibleTo() int {
	return m.visibleTo
}

// Height returns the viewport line budget.
func (m *VirtualListModel[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *VirtualListModel[T]) Width() int {
	return m.width
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
