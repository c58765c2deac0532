package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"

	"github.com/pranshuparmar/portman/internal/output"
	"github.com/pranshuparmar/portman/internal/snapshot"
	"github.com/pranshuparmar/portman/pkg/model"
)

type portsMsg []model.PortRecord

type detailMsg detail

type killMsg struct {
	result model.KillResult
	err    error
}

type tickMsg time.Time

func (m MainModel) waitTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m MainModel) refreshPorts() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		return portsMsg(backend.ScanAllPorts(ctx))
	}
}

func (m MainModel) fetchDetail(rec model.PortRecord) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		d := detail{port: rec}
		if rec.PID <= 0 {
			return detailMsg(d)
		}
		p, err := backend.ProcessInfo(ctx, rec.PID)
		if err == nil {
			d.process, d.found = p, true
			d.source = backend.DetectService(ctx, rec.PID)
		}
		return detailMsg(d)
	}
}

func (m MainModel) killCmd(pid int64, permanent bool) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		res, err := backend.KillProcess(ctx, pid, permanent)
		return killMsg{result: res, err: err}
	}
}

var sortKeys = []string{"port", "proto", "pid", "name", "role", "type", "dev", "addr"}

func (m *MainModel) sortPorts() {
	less := func(a, b model.PortRecord) bool {
		switch m.sortCol {
		case "proto":
			return a.Protocol < b.Protocol
		case "pid":
			return a.PID < b.PID
		case "name":
			return strings.ToLower(a.ProcessName) < strings.ToLower(b.ProcessName)
		case "role":
			return a.PortRole < b.PortRole
		case "type":
			return a.ProcessCategory < b.ProcessCategory
		case "dev":
			return !a.IsDevelopmentProcess && b.IsDevelopmentProcess
		case "addr":
			return a.LocalAddress < b.LocalAddress
		default:
			return a.Port < b.Port
		}
	}
	sort.SliceStable(m.ports, func(i, j int) bool {
		if m.sortDesc {
			return less(m.ports[j], m.ports[i])
		}
		return less(m.ports[i], m.ports[j])
	})
}

func columnsFor(sortCol string, desc bool) []table.Column {
	cols := []table.Column{
		{Title: "Port", Width: 7},
		{Title: "Proto", Width: 6},
		{Title: "PID", Width: 8},
		{Title: "Process", Width: 18},
		{Title: "Role", Width: 9},
		{Title: "Type", Width: 8},
		{Title: "Dev", Width: 4},
		{Title: "Address", Width: 24},
	}
	for i, key := range sortKeys {
		if key != sortCol {
			continue
		}
		if desc {
			cols[i].Title += " ↓"
		} else {
			cols[i].Title += " ↑"
		}
	}
	return cols
}

func (m *MainModel) setColumns() {
	existing := m.table.Columns()
	cols := columnsFor(m.sortCol, m.sortDesc)
	for i := range existing {
		if i < len(cols) {
			cols[i].Width = existing[i].Width
		}
	}
	m.table.SetColumns(cols)
}

func (m *MainModel) filterPorts() {
	filter := strings.ToLower(strings.TrimSpace(m.input.Value()))
	var rows []table.Row

	m.filtered = nil
	for _, p := range m.ports {
		if m.devOnly && !p.IsDevelopmentProcess {
			continue
		}
		if filter != "" && !snapshot.Matches(p, filter) {
			continue
		}
		m.filtered = append(m.filtered, p)

		pid, dev := "", ""
		if p.PID > 0 {
			pid = strconv.FormatInt(p.PID, 10)
		}
		if p.IsDevelopmentProcess {
			dev = "✓"
		}
		name := p.ProcessName
		if name == "" {
			name = "unknown"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(int(p.Port)),
			p.Protocol,
			pid,
			name,
			string(p.PortRole),
			string(p.ProcessCategory),
			dev,
			p.LocalAddress,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *MainModel) applyPorts(ports []model.PortRecord) {
	m.ports = ports
	m.stats = m.backend.Statistics()
	m.sortPorts()
	m.filterPorts()
}

func (m *MainModel) selectedPort() (model.PortRecord, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.filtered) {
		return model.PortRecord{}, false
	}
	return m.filtered[c], true
}

// targetPID is the process the action menu applies to.
func (m *MainModel) targetPID() int64 {
	if m.state == stateDetail && m.selected != nil {
		return m.selected.port.PID
	}
	if p, ok := m.selectedPort(); ok {
		return p.PID
	}
	return 0
}

func (m *MainModel) updateDetailViewport() {
	if m.selected == nil {
		return
	}
	d := m.selected
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#af87ff")).Bold(true)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d/%s  %s\n", label.Render("Port:"), d.port.Port, d.port.Protocol, d.port.Status)
	fmt.Fprintf(&b, "%s %s\n", label.Render("Address:"), d.port.LocalAddress)
	fmt.Fprintf(&b, "%s %s / %s\n\n", label.Render("Role:"), d.port.PortRole, d.port.ProcessCategory)

	if d.found {
		output.RenderProcess(&b, d.process, d.source)
	} else {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
		fmt.Fprintf(&b, "%s\n", dim.Render("Process details unavailable."))
		if d.port.CommandLine != "" {
			fmt.Fprintf(&b, "\n%s\n%s\n", label.Render("Command:"), d.port.CommandLine)
		}
	}

	content := b.String()
	if m.viewport.Width > 0 {
		content = wrap.String(content, m.viewport.Width)
	}
	m.viewport.SetContent(content)
}
