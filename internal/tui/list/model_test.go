package listview

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainRender(item string, selected bool) string {
	if selected {
		return "> " + item
	}
	return "  " + item
}

func makeItems(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	return items
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestVirtualListModel_Navigation(t *testing.T) {
	m := NewVirtualListModel(makeItems(10), 5, 80, plainRender)
	assert.Equal(t, 0, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.Selected())

	m.handleKeyMsg(keyRune('j'))
	assert.Equal(t, 2, m.Selected())

	m.handleKeyMsg(keyRune('k'))
	assert.Equal(t, 1, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.Selected())

	// Up at the top stays put.
	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, 9, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 9, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 5, m.Selected())

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, m.Selected())
}

func TestVirtualListModel_UpdateForwardsKeys(t *testing.T) {
	m := NewVirtualListModel(makeItems(3), 5, 80, plainRender)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Nil(t, cmd)
	list, ok := updated.(*VirtualListModel[string])
	require.True(t, ok)
	assert.Equal(t, 1, list.Selected())
}

func TestVirtualListModel_WindowFollowsSelection(t *testing.T) {
	m := NewVirtualListModel(makeItems(10), 5, 80, plainRender)

	view := m.View()
	assert.Equal(t, 5, strings.Count(view, "\n")+1)
	assert.Equal(t, 0, m.VisibleFrom())
	assert.Equal(t, 5, m.VisibleTo())
	assert.Contains(t, view, "> item-0")

	m.SetSelected(9)
	view = m.View()
	assert.Equal(t, 5, m.VisibleFrom())
	assert.Equal(t, 10, m.VisibleTo())
	assert.Contains(t, view, "> item-9")
	assert.NotContains(t, view, "item-0")

	// A mid-list selection is framed by neighbors on both sides.
	m.SetSelected(5)
	view = m.View()
	assert.Equal(t, 3, m.VisibleFrom())
	assert.Equal(t, 8, m.VisibleTo())
	assert.Contains(t, view, "> item-5")
}

func TestVirtualListModel_MultiLineItems(t *testing.T) {
	expanded := map[string]bool{"item-1": true}
	render := func(item string, selected bool) string {
		line := plainRender(item, selected)
		if expanded[item] {
			return line + "\n    detail"
		}
		return line
	}

	m := NewVirtualListModel(makeItems(6), 4, 80, render)

	view := m.View()
	lines := strings.Split(view, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, 0, m.VisibleFrom())
	// item-0 (1) + item-1 (2) + item-2 (1) fill the budget of 4.
	assert.Equal(t, 3, m.VisibleTo())
	assert.Contains(t, view, "detail")
}

func TestVirtualListModel_OversizedSelectionStillRenders(t *testing.T) {
	render := func(item string, selected bool) string {
		return item + "\na\nb\nc\nd"
	}
	m := NewVirtualListModel(makeItems(3), 3, 80, render)

	view := m.View()
	assert.Contains(t, view, "item-0")
	assert.Equal(t, 0, m.VisibleFrom())
	assert.Equal(t, 1, m.VisibleTo())
}

func TestVirtualListModel_SetItems(t *testing.T) {
	m := NewVirtualListModel(makeItems(10), 5, 80, plainRender)
	m.SetSelected(9)

	m.SetItems(makeItems(3))
	assert.Equal(t, 2, m.Selected())
	assert.Equal(t, 3, m.ItemCount())

	m.SetItems(nil)
	assert.Equal(t, 0, m.Selected())
	assert.Equal(t, "", m.View())
	assert.Nil(t, m.SelectedItem())
}

func TestVirtualListModel_SelectedItem(t *testing.T) {
	m := NewVirtualListModel([]string{"a", "b"}, 5, 80, plainRender)

	item := m.SelectedItem()
	require.NotNil(t, item)
	assert.Equal(t, "a", *item)

	m.SetSelected(1)
	item = m.SelectedItem()
	require.NotNil(t, item)
	assert.Equal(t, "b", *item)
}

func TestVirtualListModel_EmptyListIgnoresKeys(t *testing.T) {
	m := NewVirtualListModel(nil, 5, 80, plainRender)

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.Selected())
	assert.Equal(t, "", m.View())
}

func TestVirtualListModel_Resize(t *testing.T) {
	m := NewVirtualListModel(makeItems(10), 5, 80, plainRender)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 3})
	list, ok := updated.(*VirtualListModel[string])
	require.True(t, ok)
	assert.Equal(t, 3, list.Height())
	assert.Equal(t, 120, list.Width())

	view := list.View()
	assert.Equal(t, 3, strings.Count(view, "\n")+1)
}
