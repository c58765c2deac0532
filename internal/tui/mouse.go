package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Screen rows inside the outer border.
const (
	searchRow = 3
	headerRow = 5
)

// returns the column index at x, or -1 if not found.
func getColumnAtX(x int, cols []table.Column) int {
	currentX := 0
	for i, col := range cols {
		colWidth := col.Width + 2
		if x >= currentX && x < currentX+colWidth {
			return i
		}
		currentX += colWidth
	}
	return -1
}

func (m *MainModel) handleHeaderClick(x int) {
	idx := getColumnAtX(x, m.table.Columns())
	if idx < 0 || idx >= len(sortKeys) {
		return
	}
	if m.sortCol == sortKeys[idx] {
		m.sortDesc = !m.sortDesc
	} else {
		m.sortCol = sortKeys[idx]
		m.sortDesc = false
	}
	m.resort()
}

func (m MainModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.pendingAction != actionNone || m.actionMenuOpen {
		return m, nil
	}

	isWheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown
	isClick := msg.Action == tea.MouseActionPress && !isWheel

	if m.state == stateDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if isWheel {
		// Scroll one row without jumping the cursor to the pointer.
		key := tea.KeyMsg{Type: tea.KeyDown}
		if msg.Button == tea.MouseButtonWheelUp {
			key = tea.KeyMsg{Type: tea.KeyUp}
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(key)
		return m, cmd
	}
	if !isClick {
		return m, nil
	}

	switch {
	case msg.Y == searchRow:
		m.input.Focus()
	case msg.Y == headerRow:
		m.input.Blur()
		m.handleHeaderClick(msg.X - 2)
	default:
		m.input.Blur()
	}
	return m, nil
}
