package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/pastabot/pkg/motion"
	"github.com/gwillem/pastabot/pkg/robot"
)

type JogCommand struct {
	Config        string        `long:"config" env:"PASTABOT_CONFIG" default:"pastabot.json" description:"Configuration file written by setup"`
	Sim           bool          `long:"sim" description:"Use simulated actuators instead of the servo bus"`
	Reps          int           `long:"reps" description:"Oscillations per routine (defaults to the config)"`
	SettleTimeout time.Duration `long:"settle-timeout" default:"30s" description:"Give up on a move after this long"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Role colors
var roleColors = map[robot.Role]string{
	robot.Left:  "196", // red
	robot.Right: "51",  // cyan
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type jogModel struct {
	seq      *motion.Sequencer
	ctx      context.Context
	chart    *streamlinechart.Model
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	phase    string
	running  bool
	quitting bool
}

func (m *jogModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the sequencer
type stateMsg motion.State
type logMsg string
type doneMsg struct{ err error }

func waitForState(seq *motion.Sequencer) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-seq.States())
	}
}

func waitForLog(seq *motion.Sequencer) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-seq.Logs())
	}
}

func runRoutine(ctx context.Context, seq *motion.Sequencer) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: seq.Run(ctx)}
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *jogModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *jogModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialJogModel(ctx context.Context, seq *motion.Sequencer) jogModel {
	limit := float64(seq.Config().Step) * 1.5
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-limit, limit),
	)

	for _, role := range robot.AllRoles() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(roleColors[role]))
		chart.SetDataSetStyles(string(role), runes.ThinLineStyle, style)
	}

	return jogModel{
		seq:     seq,
		ctx:     ctx,
		chart:   &chart,
		running: true,
	}
}

func (m jogModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.seq),
		waitForLog(m.seq),
		runRoutine(m.ctx, m.seq),
	)
}

func (m jogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.running {
				m.running = true
				return m, runRoutine(m.ctx, m.seq)
			}
		}

	case stateMsg:
		state := motion.State(msg)
		m.phase = state.Phase
		if state.Error != nil {
			m.addLog("Error: " + state.Error.Error())
		}
		if state.Positions != nil {
			for role, pos := range state.Positions {
				m.chart.PushDataSet(string(role), float64(pos))
			}
			m.chart.DrawAll()
		}
		return m, waitForState(m.seq)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.seq)

	case doneMsg:
		m.running = false
		if msg.err != nil {
			m.addLog("Routine failed: " + msg.err.Error())
		}
		return m, nil
	}

	return m, nil
}

func (m jogModel) View() string {
	if m.quitting {
		return "Jog stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("pastabot jog"))
	status := "idle - press 'r' to run again"
	if m.running {
		status = "running " + m.phase
	}
	sb.WriteString(" - " + status)
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20)).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, role := range robot.AllRoles() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(roleColors[role])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+string(role))
	}
	return strings.Join(items, "  ")
}

func (c *JogCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.Config, c.Sim)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if c.Reps > 0 {
		cfg.Motion.Repetitions = c.Reps
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body, err := openBody(ctx, cfg, c.Sim)
	if err != nil {
		log.Fatalf("Failed to open actuators: %v", err)
	}
	defer body.Close()

	if err := body.Start(ctx); err != nil {
		log.Fatalf("Actuator check failed: %v", err)
	}

	// Keep the sequencer's own log lines out of the TUI
	logger := newLogger("off")
	seq := motion.NewSequencer(body, motion.ConfigFrom(cfg.Motion, c.SettleTimeout),
		motion.WithLogger(logger),
		motion.WithSampling(20*time.Millisecond),
	)

	p := tea.NewProgram(initialJogModel(ctx, seq), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
