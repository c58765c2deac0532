package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m MainModel) View() string {
	if m.quitting {
		return ""
	}

	outerStyle := baseStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Padding(0, 1)

	var body string
	if m.state == stateDetail {
		body = m.detailView()
	} else {
		body = m.listView()
	}

	return outerStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		"",
		body,
		m.footerView(),
	))
}

func (m MainModel) headerView() string {
	title := titleStyle.Render("portman")
	if m.version != "" {
		title = titleStyle.Render("portman " + m.version)
	}

	all := inactiveTabStyle.Render(fmt.Sprintf("%d ports", m.stats.Total))
	if !m.devOnly {
		all = activeTabStyle.Render(fmt.Sprintf("%d ports", m.stats.Total))
	}
	dev := inactiveTabStyle.Render(fmt.Sprintf("%d dev", m.stats.DevelopmentProcesses))
	if m.devOnly {
		dev = activeTabStyle.Render(fmt.Sprintf("%d dev", m.stats.DevelopmentProcesses))
	}

	scanned := ""
	if !m.stats.LastScanTime.IsZero() {
		scanned = footerStyle.UnsetBorderTop().Render("scanned " + m.stats.LastScanTime.Format("15:04:05"))
	}
	if m.scanning {
		scanned = footerStyle.UnsetBorderTop().Render("scanning...")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", all, " ", dev, " ", scanned)
}

func (m MainModel) listView() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if len(m.filtered) == 0 && len(m.ports) > 0 {
		b.WriteString(footerStyle.UnsetBorderTop().Render("No ports match the current filter."))
		b.WriteString("\n")
	}
	b.WriteString(m.table.View())
	return b.String()
}

func (m MainModel) detailView() string {
	header := "Details"
	if m.selected != nil {
		header = fmt.Sprintf("Port %d", m.selected.port.Port)
		if m.selected.port.PID > 0 {
			header += fmt.Sprintf(" · PID %d", m.selected.port.PID)
		}
	}
	switch {
	case !m.viewport.AtTop() && !m.viewport.AtBottom():
		header += " ↕"
	case !m.viewport.AtTop():
		header += " ↑"
	case !m.viewport.AtBottom():
		header += " ↓"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		tableHeaderStyle.Width(m.viewport.Width).Render(header),
		m.viewport.View(),
	)
}

func (m MainModel) footerView() string {
	pid := m.targetPID()

	var helpText string
	switch {
	case m.actionMenuOpen:
		helpText = actionMenuStyle.Render("Esc/q: cancel | Actions:  [k]ill  [p]ermanently stop")
	case m.pendingAction == actionKill:
		helpText = confirmStyle.Render(fmt.Sprintf("Kill PID %d? [y]es / [n]o", pid))
	case m.pendingAction == actionStop:
		helpText = confirmStyle.Render(fmt.Sprintf("Permanently stop PID %d? [y]es / [n]o", pid))
	case m.statusMsg != "" && m.statusOK:
		helpText = okStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		helpText = errorStyle.Render(m.statusMsg)
	case m.state == stateDetail:
		helpText = "Esc/q: back | a: actions | ↑/↓: scroll"
	case m.input.Focused():
		helpText = "Mode: Searching (Press Esc/Enter to stop)"
	default:
		helpText = "/: search | enter: details | a: actions | d: dev only | s/S: sort | r: rescan | q: quit"
	}
	return footerStyle.Width(max(m.width-4, 0)).Render(helpText)
}
