// Package ui provides statistics display components.
package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Stats holds fuzzer-run statistics for the dashboard, guarded by a
// mutex so another goroutine can call its setters while the TUI
// renders. Nothing in this tree feeds it from the engine loop:
// cmd/covfuzz starts the dashboard and the loop without connecting
// them, so the panel shows only what a caller records here.
type Stats struct {
	mu sync.RWMutex

	StartTime  time.Time
	Executions int64
	Level      int
	QueueDepth int
	Crashes    int

	lastMetric     string
	lastUniqueness int

	levelPeakQueueDepth int
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// RecordExecution bumps the execution counter.
func (s *Stats) RecordExecution() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Executions++
}

// RecordCrash bumps the crash counter.
func (s *Stats) RecordCrash() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Crashes++
}

// SetLevel records the engine's current rescan level. A level change
// resets the peak queue depth used by LevelProgress, since Rescan just
// refilled the queue from scratch.
func (s *Stats) SetLevel(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level != s.Level {
		s.levelPeakQueueDepth = 0
	}
	s.Level = level
}

// SetQueueDepth records the engine's current pending-test-case count,
// tracking the highest depth seen since the last level change.
func (s *Stats) SetQueueDepth(depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QueueDepth = depth
	if depth > s.levelPeakQueueDepth {
		s.levelPeakQueueDepth = depth
	}
}

// LevelProgress reports how much of the current level's queue has been
// drained, as (drained, peak). peak is zero until the first
// SetQueueDepth call of a level.
func (s *Stats) LevelProgress() (drained, peak int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.levelPeakQueueDepth == 0 {
		return 0, 0
	}
	return int64(s.levelPeakQueueDepth - s.QueueDepth), int64(s.levelPeakQueueDepth)
}

// SetDominant records the most recent projection's dominant metric and
// uniqueness.
func (s *Stats) SetDominant(metric string, uniqueness int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMetric = metric
	s.lastUniqueness = uniqueness
}

// GetExecsPerSecond returns the average executions per second since
// the run started.
func (s *Stats) GetExecsPerSecond() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed < 1 {
		return 0
	}
	return float64(s.Executions) / elapsed
}

// GetElapsedTime returns the elapsed time since the run started.
func (s *Stats) GetElapsedTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.StartTime)
}

// Snapshot returns an immutable copy of the current stats.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		Executions:     s.Executions,
		Level:          s.Level,
		QueueDepth:     s.QueueDepth,
		Crashes:        s.Crashes,
		ElapsedTime:    time.Since(s.StartTime),
		ExecsPerSecond: s.GetExecsPerSecond(),
		LastMetric:     s.lastMetric,
		LastUniqueness: s.lastUniqueness,
	}
}

// StatsSnapshot is an immutable snapshot of Stats.
type StatsSnapshot struct {
	Executions     int64
	Level          int
	QueueDepth     int
	Crashes        int
	ElapsedTime    time.Duration
	ExecsPerSecond float64
	LastMetric     string
	LastUniqueness int
}

// StatsView renders the statistics panel.
type StatsView struct {
	width  int
	height int
}

// NewStatsView creates a new stats view.
func NewStatsView(width, height int) *StatsView {
	return &StatsView{width: width, height: height}
}

// SetSize updates the view size.
func (v *StatsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Render renders the stats view.
func (v *StatsView) Render(snap StatsSnapshot) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Coverage Engine"))
	b.WriteString("\n\n")

	b.WriteString(RenderLabelValue("Level", fmt.Sprintf("%d", snap.Level)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Queue Depth", fmt.Sprintf("%d", snap.QueueDepth)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Executions", formatNumber(snap.Executions)))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Throughput"))
	b.WriteString("\n\n")
	b.WriteString(RenderLabelValue("Execs/sec", fmt.Sprintf("%.1f", snap.ExecsPerSecond)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Elapsed", formatDuration(snap.ElapsedTime)))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Crashes"))
	b.WriteString("\n\n")
	if snap.Crashes > 0 {
		b.WriteString(AnomalyHighStyle.Render(fmt.Sprintf("Total: %d", snap.Crashes)))
	} else {
		b.WriteString(RenderLabelValue("Total", "0"))
	}
	if snap.LastMetric != "" {
		b.WriteString("\n\n")
		b.WriteString(RenderLabelValue("Last new cov", fmt.Sprintf("%s (%d)", snap.LastMetric, snap.LastUniqueness)))
	}

	return StatsPanelStyle.Width(v.width).Render(b.String())
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
