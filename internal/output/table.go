package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/truncate"

	"github.com/pranshuparmar/portman/pkg/model"
)

const commandWidth = 60

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	devStyle    = cellStyle.Foreground(lipgloss.Color("#04B575"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Truncate shortens s to width cells, marking the cut with an ellipsis.
func Truncate(s string, width uint) string {
	return truncate.StringWithTail(s, width, "…")
}

// RenderTable prints records as a bordered table.
func RenderTable(w io.Writer, records []model.PortRecord, colorEnabled bool) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		dev := ""
		if r.IsDevelopmentProcess {
			dev = "yes"
		}
		pid := "-"
		if r.PID > 0 {
			pid = strconv.FormatInt(r.PID, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(r.Port)),
			r.Protocol,
			pid,
			displayName(r.ProcessName),
			string(r.PortRole),
			string(r.ProcessCategory),
			dev,
			r.LocalAddress,
			Truncate(r.CommandLine, commandWidth),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PORT", "PROTO", "PID", "PROCESS", "ROLE", "CATEGORY", "DEV", "ADDRESS", "COMMAND").
		Rows(rows...)

	if colorEnabled {
		t = t.BorderStyle(borderStyle).StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(records) && records[row].IsDevelopmentProcess {
				return devStyle
			}
			return cellStyle
		})
	} else {
		t = t.StyleFunc(func(int, int) lipgloss.Style { return cellStyle })
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d listening port(s)\n", len(records))
}

// RenderStats prints snapshot statistics.
func RenderStats(w io.Writer, s model.Statistics) {
	fmt.Fprintf(w, "Total:        %d\n", s.Total)
	fmt.Fprintf(w, "Development:  %d\n", s.DevelopmentProcesses)
	fmt.Fprintf(w, "TCP:          %d\n", s.TCP)
	fmt.Fprintf(w, "UDP:          %d\n", s.UDP)

	fmt.Fprintln(w, "By role:")
	for _, role := range []model.PortRole{model.RoleFrontend, model.RoleBackend, model.RoleDatabase, model.RoleOther} {
		fmt.Fprintf(w, "  %-10s %d\n", role, s.ByRole[role])
	}
	fmt.Fprintln(w, "By category:")
	for _, c := range []model.ProcessCategory{
		model.CategoryJava, model.CategoryNode, model.CategoryPython, model.CategoryWebServer,
		model.CategoryDatabase, model.CategoryIDE, model.CategoryBrowser, model.CategorySystem, model.CategoryOther,
	} {
		if n := s.ByCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", c, n)
		}
	}
	if !s.LastScanTime.IsZero() {
		fmt.Fprintf(w, "Last scan:    %s\n", s.LastScanTime.Format(time.RFC3339))
	}
}

// RenderProcess prints a process looked up by PID and its supervisor.
func RenderProcess(w io.Writer, p model.ProcessRecord, src model.Source) {
	fmt.Fprintf(w, "PID:         %d\n", p.PID)
	fmt.Fprintf(w, "Process:     %s\n", displayName(p.ProcessName))
	if p.User != "" {
		fmt.Fprintf(w, "User:        %s\n", p.User)
	}
	if p.ProcessPath != "" {
		fmt.Fprintf(w, "Executable:  %s\n", p.ProcessPath)
	}
	if !p.StartTime.IsZero() {
		fmt.Fprintf(w, "Started:     %s\n", p.StartTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Development: %t\n", p.IsDevelopmentProcess)
	if src.Managed() {
		fmt.Fprintf(w, "Service:     %s (%s, found by %s)\n", src.Label, src.Type, src.Via)
	}
	if p.CommandLine != "" {
		fmt.Fprintf(w, "Command:     %s\n", p.CommandLine)
	}
}

// RenderKill prints one line per kill result.
func RenderKill(w io.Writer, results []model.KillResult) {
	for _, r := range results {
		mark := "✗"
		if r.Success {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s pid %d: %s\n", mark, r.PID, strings.TrimSuffix(r.Message, "."))
	}
}
