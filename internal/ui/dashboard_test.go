package ui

import (
	"testing"
	"time"
)

func TestNewDashboard(t *testing.T) {
	d := NewDashboard()

	if d == nil {
		t.Fatal("NewDashboard returned nil")
	}
	if d.status != StatusIdle {
		t.Errorf("Expected StatusIdle, got %v", d.status)
	}
	if d.stats == nil {
		t.Error("Stats should not be nil")
	}
}

func TestDashboard_StatusTransitions(t *testing.T) {
	d := NewDashboard()

	d.Start()
	if d.status != StatusRunning {
		t.Errorf("Expected StatusRunning after Start, got %v", d.status)
	}

	d.Pause()
	if d.status != StatusPaused {
		t.Errorf("Expected StatusPaused after Pause, got %v", d.status)
	}

	d.Resume()
	if d.status != StatusRunning {
		t.Errorf("Expected StatusRunning after Resume, got %v", d.status)
	}

	d.Stop()
	if d.status != StatusStopped {
		t.Errorf("Expected StatusStopped after Stop, got %v", d.status)
	}
}

func TestDashboard_AddLog(t *testing.T) {
	d := NewDashboard()

	d.AddLog("INFO", "Test message 1")
	d.AddLog("ERROR", "Test message 2")

	if len(d.logs) != 2 {
		t.Errorf("Expected 2 logs, got %d", len(d.logs))
	}
	if d.logs[0].Level != "INFO" {
		t.Errorf("Expected first log level INFO, got %s", d.logs[0].Level)
	}
	if d.logs[1].Message != "Test message 2" {
		t.Errorf("Expected second log message 'Test message 2', got %s", d.logs[1].Message)
	}
}

func TestDashboard_LogTrimming(t *testing.T) {
	d := NewDashboard()
	d.maxLogs = 5

	for i := 0; i < 10; i++ {
		d.AddLog("INFO", "Message")
	}

	if len(d.logs) != 5 {
		t.Errorf("Expected %d logs after trimming, got %d", d.maxLogs, len(d.logs))
	}
}

func TestStats_RecordExecution(t *testing.T) {
	s := NewStats()

	s.RecordExecution()
	s.RecordExecution()
	s.RecordExecution()

	if s.Executions != 3 {
		t.Errorf("Expected 3 executions, got %d", s.Executions)
	}
}

func TestStats_RecordCrash(t *testing.T) {
	s := NewStats()

	s.RecordCrash()
	s.RecordCrash()

	if s.Crashes != 2 {
		t.Errorf("Expected 2 crashes, got %d", s.Crashes)
	}
}

func TestStats_SetLevelAndQueueDepth(t *testing.T) {
	s := NewStats()

	s.SetLevel(3)
	s.SetQueueDepth(42)

	if s.Level != 3 {
		t.Errorf("Expected level 3, got %d", s.Level)
	}
	if s.QueueDepth != 42 {
		t.Errorf("Expected queue depth 42, got %d", s.QueueDepth)
	}
}

func TestStats_LevelProgress(t *testing.T) {
	s := NewStats()

	drained, peak := s.LevelProgress()
	if drained != 0 || peak != 0 {
		t.Errorf("Expected no progress before any queue depth is recorded, got %d/%d", drained, peak)
	}

	s.SetQueueDepth(10)
	s.SetQueueDepth(6)
	drained, peak = s.LevelProgress()
	if peak != 10 || drained != 4 {
		t.Errorf("Expected drained 4 of peak 10, got %d/%d", drained, peak)
	}

	s.SetLevel(s.Level + 1)
	drained, peak = s.LevelProgress()
	if drained != 0 || peak != 0 {
		t.Errorf("Expected level change to reset peak, got %d/%d", drained, peak)
	}
}

func TestDashboard_RenderStatsPanelIncludesLevelProgress(t *testing.T) {
	d := NewDashboard()
	d.width = 80
	d.height = 24
	d.stats.SetQueueDepth(10)
	d.stats.SetQueueDepth(4)

	out := d.renderStatsPanel()
	if out == "" {
		t.Error("renderStatsPanel returned empty string")
	}
}

func TestStats_SetDominant(t *testing.T) {
	s := NewStats()
	s.SetDominant("block", 2)

	snap := s.Snapshot()
	if snap.LastMetric != "block" || snap.LastUniqueness != 2 {
		t.Errorf("Expected dominant block/2, got %s/%d", snap.LastMetric, snap.LastUniqueness)
	}
}

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()

	s.RecordExecution()
	s.SetLevel(1)
	s.SetQueueDepth(5)
	s.RecordCrash()

	snap := s.Snapshot()

	if snap.Executions != 1 {
		t.Errorf("Snapshot Executions: expected 1, got %d", snap.Executions)
	}
	if snap.Level != 1 {
		t.Errorf("Snapshot Level: expected 1, got %d", snap.Level)
	}
	if snap.Crashes != 1 {
		t.Errorf("Snapshot Crashes: expected 1, got %d", snap.Crashes)
	}
}

func TestProgressBar(t *testing.T) {
	p := NewProgressBar(50)

	p.SetProgress(0.5)
	p.SetETA("5m30s")

	rendered := p.Render()

	if rendered == "" {
		t.Error("ProgressBar Render returned empty string")
	}
	if len(rendered) < 10 {
		t.Error("ProgressBar Render output too short")
	}
}

func TestProgressBar_Bounds(t *testing.T) {
	p := NewProgressBar(50)

	p.SetProgress(-0.5)
	if p.percentage != 0 {
		t.Errorf("Expected percentage clamped to 0, got %f", p.percentage)
	}

	p.SetProgress(1.5)
	if p.percentage != 1 {
		t.Errorf("Expected percentage clamped to 1, got %f", p.percentage)
	}
}

func TestSpinnerProgress(t *testing.T) {
	s := NewSpinnerProgress()

	s.SetText("Loading data...")

	if !s.running {
		t.Error("Spinner should be running by default")
	}

	initialFrame := s.frame
	s.Tick()
	s.Tick()

	if s.frame == initialFrame {
		t.Error("Spinner frame should change after Tick")
	}

	s.Stop()
	if s.running {
		t.Error("Spinner should not be running after Stop")
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusIdle, "Idle"},
		{StatusRunning, "Running"},
		{StatusPaused, "Paused"},
		{StatusStopped, "Stopped"},
	}

	for _, tt := range tests {
		if tt.status.String() != tt.expected {
			t.Errorf("Status.String(): expected %s, got %s", tt.expected, tt.status.String())
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{1000000, "1.0M"},
		{1500000, "1.5M"},
	}

	for _, tt := range tests {
		result := formatNumber(tt.input)
		if result != tt.expected {
			t.Errorf("formatNumber(%d): expected %s, got %s", tt.input, tt.expected, result)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.input)
		if result != tt.expected {
			t.Errorf("formatDuration(%v): expected %s, got %s", tt.input, tt.expected, result)
		}
	}
}

func BenchmarkStats_RecordExecution(b *testing.B) {
	s := NewStats()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.RecordExecution()
	}
}

func BenchmarkStats_Snapshot(b *testing.B) {
	s := NewStats()
	for i := 0; i < 1000; i++ {
		s.RecordExecution()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Snapshot()
	}
}

func BenchmarkDashboard_View(b *testing.B) {
	d := NewDashboard()
	d.width = 120
	d.height = 40
	d.Start()

	for i := 0; i < 20; i++ {
		d.AddLog("INFO", "Test message")
	}
	for i := 0; i < 100; i++ {
		d.stats.RecordExecution()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.View()
	}
}
