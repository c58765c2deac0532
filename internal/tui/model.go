// Package tui is the interactive port monitor.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pranshuparmar/portman/pkg/model"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#585858")) // Dark Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#7D56F4")). // Purple
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
				Bold(true).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("#585858")). // Dark Gray
				Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#585858")). // Dark Gray
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")). // White
			Background(lipgloss.Color("#22aa22")). // Green
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffffff")). // White
				Background(lipgloss.Color("#767676")). // Dimmed Gray
				Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")). // Soft red
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5fd75f")). // Green
		Bold(true)

	actionMenuStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")). // Amber
			Bold(true)

	confirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaf5f")). // Orange-amber
			Bold(true)
)

// Backend is the part of pipeline.Manager the monitor drives.
type Backend interface {
	ScanAllPorts(ctx context.Context) []model.PortRecord
	GetAllPorts() []model.PortRecord
	Statistics() model.Statistics
	ProcessInfo(ctx context.Context, pid int64) (model.ProcessRecord, error)
	DetectService(ctx context.Context, pid int64) model.Source
	KillProcess(ctx context.Context, pid int64, permanent bool) (model.KillResult, error)
}

type modelState int

const (
	stateList modelState = iota
	stateDetail
)

type actionKind int

const (
	actionNone actionKind = iota
	actionKill            // kill, falling back to a signal
	actionStop            // stop through the supervisor only
)

type detail struct {
	port    model.PortRecord
	process model.ProcessRecord
	source  model.Source
	// found is false when the process vanished after the scan.
	found bool
}

type MainModel struct {
	ctx      context.Context
	backend  Backend
	interval time.Duration

	state    modelState
	table    table.Model
	input    textinput.Model
	viewport viewport.Model

	ports    []model.PortRecord
	filtered []model.PortRecord
	stats    model.Statistics
	selected *detail
	devOnly  bool

	statusMsg string
	statusOK  bool
	width     int
	height    int
	quitting  bool
	scanning  bool

	sortCol  string
	sortDesc bool
	version  string

	actionMenuOpen bool
	pendingAction  actionKind
}

func InitialModel(ctx context.Context, backend Backend, version string, interval time.Duration) MainModel {
	t := table.New(
		table.WithColumns(columnsFor("port", false)),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = tableHeaderStyle
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffaf")). // Light Yellow
		Background(lipgloss.Color("#5f00d7")). // Purple
		Bold(false)
	t.SetStyles(s)

	ti := textinput.New()
	ti.Placeholder = "Search port, process, command..."
	ti.CharLimit = 156
	ti.Width = 50
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.Blur()

	vp := viewport.New(0, 0)

	if interval <= 0 {
		interval = 5 * time.Second
	}

	return MainModel{
		ctx:      ctx,
		backend:  backend,
		interval: interval,
		state:    stateList,
		table:    t,
		input:    ti,
		viewport: vp,
		sortCol:  "port",
		version:  version,
	}
}

// Start runs the monitor until the user quits or ctx is cancelled.
func Start(ctx context.Context, backend Backend, version string, interval time.Duration) error {
	if os.Getenv("COLORTERM") == "" {
		os.Setenv("COLORTERM", "truecolor") //nolint:errcheck
	}

	p := tea.NewProgram(InitialModel(ctx, backend, version, interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running tui: %w", err)
	}
	return nil
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.refreshPorts(),
		m.waitTick(),
		tea.EnableMouseCellMotion,
	)
}
