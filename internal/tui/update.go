package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		var cmd tea.Cmd
		if m.state == stateList && !m.quitting && !m.scanning && !m.input.Focused() && m.pendingAction == actionNone {
			m.scanning = true
			cmd = m.refreshPorts()
		}
		return m, tea.Batch(cmd, m.waitTick())

	case portsMsg:
		m.scanning = false
		m.applyPorts(msg)
		return m, nil

	case detailMsg:
		d := detail(msg)
		m.selected = &d
		m.state = stateDetail
		m.viewport.GotoTop()
		m.updateDetailViewport()
		return m, nil

	case killMsg:
		if msg.err != nil {
			m.statusMsg, m.statusOK = fmt.Sprintf("Error: %v", msg.err), false
			return m, nil
		}
		m.statusMsg, m.statusOK = msg.result.Message, msg.result.Success
		if msg.result.Success {
			m.state = stateList
			m.selected = nil
		}
		m.applyPorts(m.backend.GetAllPorts())
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.pendingAction != actionNone {
			return m.handleConfirm(msg)
		}
		if m.actionMenuOpen {
			return m.handleActionMenu(msg)
		}
		m.statusMsg = ""
		if m.state == stateDetail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m MainModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch msg.String() {
		case "enter", "esc":
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.filterPorts()
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "/":
		m.input.Focus()
		return m, textinput.Blink
	case "esc":
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.filterPorts()
		}
		return m, nil
	case "enter":
		if p, ok := m.selectedPort(); ok {
			return m, m.fetchDetail(p)
		}
		return m, nil
	case "r":
		if !m.scanning {
			m.scanning = true
			return m, m.refreshPorts()
		}
		return m, nil
	case "d":
		m.devOnly = !m.devOnly
		m.filterPorts()
		return m, nil
	case "s":
		m.cycleSort()
		return m, nil
	case "S":
		m.sortDesc = !m.sortDesc
		m.resort()
		return m, nil
	case "a":
		if m.targetPID() > 0 {
			m.actionMenuOpen = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m MainModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.state = stateList
		m.selected = nil
		return m, nil
	case "a":
		if m.targetPID() > 0 {
			m.actionMenuOpen = true
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m MainModel) handleActionMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "k":
		m.actionMenuOpen = false
		m.pendingAction = actionKill
	case "p":
		m.actionMenuOpen = false
		m.pendingAction = actionStop
	case "esc", "q":
		m.actionMenuOpen = false
	}
	return m, nil
}

func (m MainModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		pid := m.targetPID()
		permanent := m.pendingAction == actionStop
		m.pendingAction = actionNone
		if pid <= 0 {
			return m, nil
		}
		m.statusMsg, m.statusOK = fmt.Sprintf("Terminating PID %d...", pid), true
		return m, m.killCmd(pid, permanent)
	case "n", "N", "esc":
		m.pendingAction = actionNone
	}
	return m, nil
}

func (m *MainModel) cycleSort() {
	next := sortKeys[0]
	for i, k := range sortKeys {
		if k == m.sortCol {
			next = sortKeys[(i+1)%len(sortKeys)]
			break
		}
	}
	m.sortCol = next
	m.sortDesc = false
	m.resort()
}

func (m *MainModel) resort() {
	m.sortPorts()
	m.filterPorts()
	m.setColumns()
}

func (m *MainModel) resize(width, height int) {
	m.width = width
	m.height = height

	tableHeight := height - 11
	if tableHeight < 5 {
		tableHeight = 5
	}
	m.table.SetHeight(tableHeight)

	availableWidth := width - 6
	if availableWidth < 0 {
		availableWidth = 0
	}
	cols := m.table.Columns()
	used := 0
	for _, c := range cols[:len(cols)-1] {
		used += c.Width + 2
	}
	if last := availableWidth - used - 2; last > 10 {
		cols[len(cols)-1].Width = last
	}
	m.table.SetColumns(cols)

	m.viewport.Width = availableWidth
	m.viewport.Height = tableHeight + 2
	m.updateDetailViewport()
}
