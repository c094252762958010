// Package ui provides a live TUI dashboard for a fuzzer run.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Status represents the dashboard state.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusPaused:
		return "Paused"
	case StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// LogEntry represents a log message.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// Dashboard is the bubbletea model for the live fuzzer dashboard.
type Dashboard struct {
	width  int
	height int

	status        Status
	stats         *Stats
	statsView     *StatsView
	levelProgress *ProgressView
	spinner       *SpinnerProgress

	logs    []LogEntry
	maxLogs int

	targetCmd string
	tickCount int
}

// NewDashboard creates a new dashboard instance.
func NewDashboard() *Dashboard {
	d := &Dashboard{
		width:         80,
		height:        24,
		status:        StatusIdle,
		stats:         NewStats(),
		statsView:     NewStatsView(40, 15),
		levelProgress: NewProgressView(40),
		spinner:       NewSpinnerProgress(),
		logs:          make([]LogEntry, 0, 100),
		maxLogs:       50,
	}
	d.spinner.SetText("fuzzing")
	d.levelProgress.SetTitle("Level Drain")
	return d
}

// SetTargetCmd sets the target command line shown in the header.
func (d *Dashboard) SetTargetCmd(cmd string) {
	d.targetCmd = cmd
}

// AddLog adds a log entry, trimming the oldest once maxLogs is
// exceeded.
func (d *Dashboard) AddLog(level, message string) {
	d.logs = append(d.logs, LogEntry{Time: time.Now(), Level: level, Message: message})
	if len(d.logs) > d.maxLogs {
		d.logs = d.logs[len(d.logs)-d.maxLogs:]
	}
}

// Stats returns the stats object the dashboard renders; callers update
// it through its setters.
func (d *Dashboard) Stats() *Stats { return d.stats }

// Start marks the dashboard as running.
func (d *Dashboard) Start() {
	d.status = StatusRunning
	d.spinner.Start()
	d.AddLog("INFO", "fuzzing started")
}

// Pause marks the dashboard as paused.
func (d *Dashboard) Pause() {
	d.status = StatusPaused
	d.spinner.Stop()
	d.AddLog("INFO", "fuzzing paused")
}

// Resume marks the dashboard as running again.
func (d *Dashboard) Resume() {
	d.status = StatusRunning
	d.spinner.Start()
	d.AddLog("INFO", "fuzzing resumed")
}

// Stop marks the dashboard as stopped.
func (d *Dashboard) Stop() {
	d.status = StatusStopped
	d.spinner.Stop()
	d.AddLog("INFO", "fuzzing stopped")
}

// --- bubbletea Model interface ---

// TickMsg is sent on each animation tick.
type TickMsg time.Time

// Init initializes the model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return d, tea.Quit
		case "p":
			if d.status == StatusRunning {
				d.Pause()
			} else if d.status == StatusPaused {
				d.Resume()
			}
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.statsView.SetSize(d.width/3, d.height-10)
		d.levelProgress.SetSize(d.width / 3)

	case TickMsg:
		d.tickCount++
		d.spinner.Tick()
		return d, tickCmd()
	}

	return d, nil
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(d.renderHeader())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, d.renderStatsPanel(), d.renderLogPanel()))
	b.WriteString("\n")
	b.WriteString(d.spinner.Render())
	b.WriteString("\n")
	b.WriteString(d.renderFooter())
	return b.String()
}

func (d *Dashboard) renderHeader() string {
	title := TitleStyle.Render("covfuzz")

	var statusText string
	switch d.status {
	case StatusRunning:
		statusText = RunningStyle.Render("● RUNNING")
	case StatusPaused:
		statusText = PausedStyle.Render("⏸ PAUSED")
	case StatusStopped:
		statusText = StoppedStyle.Render("■ STOPPED")
	default:
		statusText = HelpStyle.Render("○ IDLE")
	}

	target := ""
	if d.targetCmd != "" {
		target = LabelStyle.Render("Target: ") + InfoStyle.Render(d.targetCmd)
	}

	left := title + "  " + statusText
	padding := d.width - lipgloss.Width(left) - lipgloss.Width(target) - 2
	if padding < 0 {
		padding = 0
	}
	return BoxStyle.Width(d.width - 2).Render(left + strings.Repeat(" ", padding) + target)
}

func (d *Dashboard) renderStatsPanel() string {
	drained, peak := d.stats.LevelProgress()
	d.levelProgress.Update(drained, peak, "")
	return d.statsView.Render(d.stats.Snapshot()) + "\n" + d.levelProgress.Render()
}

func (d *Dashboard) renderLogPanel() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Activity Log"))
	b.WriteString("\n\n")

	start := 0
	if len(d.logs) > 8 {
		start = len(d.logs) - 8
	}
	for i := start; i < len(d.logs); i++ {
		l := d.logs[i]
		var style lipgloss.Style
		switch l.Level {
		case "ERROR":
			style = ErrorStyle
		case "WARN":
			style = WarningStyle
		default:
			style = InfoStyle
		}
		line := fmt.Sprintf("%s %s %s",
			HelpStyle.Render(l.Time.Format("15:04:05")),
			style.Render(fmt.Sprintf("%-5s", l.Level)),
			l.Message,
		)
		if len(line) > d.width/2-10 {
			line = line[:d.width/2-13] + "..."
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return LogPanelStyle.Width(d.width/2 - 4).Render(b.String())
}

func (d *Dashboard) renderFooter() string {
	var helps []string
	if d.status == StatusRunning {
		helps = append(helps, RenderHelp("p", "pause"))
	} else if d.status == StatusPaused {
		helps = append(helps, RenderHelp("p", "resume"))
	}
	helps = append(helps, RenderHelp("q", "quit"))
	return FooterStyle.Render(strings.Join(helps, "  "))
}

// Run starts the TUI application, blocking until the user quits.
func Run(d *Dashboard) error {
	p := tea.NewProgram(d, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
