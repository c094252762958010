// Package stats reports periodic JSON snapshots of a fuzzer run: a
// JSON array of per-tick snapshots plus per-metric full() dumps,
// written under a stats/ directory to a file named by a run UUID. An
// execution-time histogram is kept in memory alongside; it is not
// part of the written JSON.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VividCortex/gohistogram"
	"github.com/google/uuid"
)

// Snapshot is one per-tick stats record.
type Snapshot struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       int            `json:"level"`
	Executions  int64          `json:"executions"`
	QueueDepth  int            `json:"queue_depth"`
	Crashes     int            `json:"crashes"`
	MetricSummary map[string]any `json:"metric_summary"`
}

// Recorder accumulates snapshots and an execution-time histogram for
// one fuzzer run, and can flush both to disk as JSON.
type Recorder struct {
	runID      uuid.UUID
	dir        string
	snapshots  []Snapshot
	execTimes  *gohistogram.NumericHistogram
}

// NewRecorder creates a stats/ directory under root and returns a
// Recorder tagged with a fresh run id.
func NewRecorder(root string) (*Recorder, error) {
	dir := filepath.Join(root, "stats")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("stats: creating %s: %w", dir, err)
	}
	return &Recorder{
		runID:     uuid.New(),
		dir:       dir,
		execTimes: gohistogram.NewHistogram(20),
	}, nil
}

// RunID returns this run's identifier, used to name the flushed files.
func (r *Recorder) RunID() string { return r.runID.String() }

// ObserveExecution records one target execution's wall-clock duration
// into the running histogram.
func (r *Recorder) ObserveExecution(d time.Duration) {
	r.execTimes.Add(d.Seconds())
}

// Tick appends one snapshot to the in-memory history.
func (r *Recorder) Tick(s Snapshot) {
	r.snapshots = append(r.snapshots, s)
}

// ExecutionQuantile reports a quantile (0..1) of observed execution
// durations in seconds.
func (r *Recorder) ExecutionQuantile(q float64) float64 {
	return r.execTimes.Quantile(q)
}

// report is the on-disk shape written by Flush: the tick history plus
// each metric's full state, keyed by metric name.
type report struct {
	Snapshots []Snapshot     `json:"snapshots"`
	Full      map[string]any `json:"full"`
}

// Flush writes the accumulated snapshots and full to
// stats/<run-id>.json. full is typically built from every registered
// metric's Full() at shutdown.
func (r *Recorder) Flush(full map[string]any) error {
	path := filepath.Join(r.dir, r.runID.String()+".json")
	data, err := json.MarshalIndent(report{Snapshots: r.snapshots, Full: full}, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("stats: writing %s: %w", path, err)
	}
	return nil
}
