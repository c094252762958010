// Package engine implements the priority-driven mutation loop:
// Load-seeds, Drain-level and Rescan, tying together the CFG index,
// coverage aggregator, mutator, executor and on-disk queue. Grounded
// on original_source's src/fuzzer/mod.rs::fuzz_loop/load_queue.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/covfuzz/covfuzz/internal/coverage"
	"github.com/covfuzz/covfuzz/internal/executor"
	"github.com/covfuzz/covfuzz/internal/mutator"
	"github.com/covfuzz/covfuzz/internal/queue"
	"github.com/covfuzz/covfuzz/internal/stats"
	"github.com/covfuzz/covfuzz/internal/trace"
	"github.com/covfuzz/covfuzz/pkg/types"
)

// statusInterval bounds how often Run logs a status line: at most once
// per second of wall time, regardless of execution rate.
const statusInterval = time.Second

// Region is the minimal view of the shared-memory trace buffer the
// loop needs, kept as an interface so tests can substitute a plain
// byte slice instead of a real mmap (internal/shm.Region satisfies
// this).
type Region interface {
	Bytes() []byte
}

// Runner is the minimal view of target execution the loop needs,
// kept as an interface so tests can substitute a scripted sequence of
// results instead of spawning a real child process
// (internal/executor.Executor satisfies this).
type Runner interface {
	Run(input []byte) (executor.Result, error)
}

// Deps are the explicit dependencies the loop is built from. Every
// field is constructed once by the caller (the CLI layer) and passed
// in here — no package in this tree reads an environment variable at
// construction time.
type Deps struct {
	Region     Region
	Aggregator *coverage.Aggregator
	UseCov     []string
	Executor   Runner
	Queue      *queue.Dir
	Recorder   *stats.Recorder
	Logger     *slog.Logger
	Rand       *rand.Rand
}

// Loop is one fuzzer instance's single-threaded cooperative driver.
// It owns no locks: coverage state is only touched between
// child-process boundaries.
type Loop struct {
	region         Region
	agg            *coverage.Aggregator
	useCov         []string
	exec           Runner
	qdir           *queue.Dir
	pq             *queue.Priority
	recorder       *stats.Recorder
	log            *slog.Logger
	rng            *rand.Rand
	level          int
	execCount      int64
	newCovCount    int64
	crashSeen      map[types.BlockID]struct{}
	startTime      time.Time
	lastStatusTime time.Time
}

// New builds a Loop from explicit dependencies.
func New(d Deps) *Loop {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(1))
	}
	return &Loop{
		region:    d.Region,
		agg:       d.Aggregator,
		useCov:    d.UseCov,
		exec:      d.Executor,
		qdir:      d.Queue,
		pq:        queue.NewPriority(),
		recorder:  d.Recorder,
		log:       d.Logger,
		rng:       d.Rand,
		crashSeen: make(map[types.BlockID]struct{}),
	}
}

// Level returns the current rescan level.
func (l *Loop) Level() int { return l.level }

// QueueLen returns the number of pending test cases.
func (l *Loop) QueueLen() int { return l.pq.Len() }

// LoadSeeds runs every file in inputDir once, saving it to the queue
// at its computed priority if it triggers new coverage, otherwise
// discarding it with a warning.
func (l *Loop) LoadSeeds(inputDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("engine: reading seed directory %s: %w", inputDir, err)
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		path := filepath.Join(inputDir, ent.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.log.Warn("load-seeds: failed to read seed, skipping", "path", path, "error", err)
			continue
		}
		proj, err := l.executeAndProject(data)
		if err != nil {
			l.log.Warn("load-seeds: target execution failed, skipping", "path", path, "error", err)
			continue
		}
		if proj.TriggersNew {
			name, err := l.qdir.Save(data, true, proj.DominantMetric, proj.DominantUniqueness)
			if err != nil {
				return err
			}
			l.pq.Enqueue(queue.TestCase{Data: data, Filename: name, Feedback: proj.Feedback})
		} else {
			l.log.Warn("load-seeds: seed triggered no new coverage, discarding", "path", path)
		}
	}
	return nil
}

// DrainLevel implements the Drain-level state: while the priority
// queue is non-empty, pop the highest-priority test case, mutate it
// once, execute, observe, project, and re-enqueue if it triggers new
// coverage. It returns when the queue empties or ctx is done.
func (l *Loop) DrainLevel(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		tc, ok := l.pq.Drain()
		if !ok {
			return nil
		}
		mutated := tc.Data
		if len(mutated) > 0 {
			mutated = mutator.Mutate(l.rng, mutated)
		}
		proj, err := l.executeAndProject(mutated)
		if err != nil {
			l.log.Warn("drain-level: target execution failed, skipping", "error", err)
			continue
		}
		if proj.TriggersNew {
			name, err := l.qdir.Save(mutated, true, proj.DominantMetric, proj.DominantUniqueness)
			if err != nil {
				return err
			}
			l.pq.Enqueue(queue.TestCase{
				Data:     mutated,
				Filename: name,
				Feedback: proj.Feedback,
			})
		}
	}
}

// Rescan implements the Rescan state: reload every file on disk in
// the queue directory as an Old test case at priority 0, and bump the
// level counter.
func (l *Loop) Rescan() error {
	cases, err := l.qdir.Rescan()
	if err != nil {
		return err
	}
	for _, tc := range cases {
		l.pq.Enqueue(tc)
	}
	l.level++
	return nil
}

// Run drives Load-seeds once, then alternates Drain-level and Rescan
// forever until ctx is cancelled; cancellation happens externally,
// the loop itself never stops on its own.
func (l *Loop) Run(ctx context.Context, inputDir string) error {
	if err := l.LoadSeeds(inputDir); err != nil {
		return err
	}
	for {
		if err := l.DrainLevel(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := l.Rescan(); err != nil {
			return err
		}
		l.log.Info("rescan complete", "level", l.level, "queue_depth", l.pq.Len())
	}
}

// executeAndProject runs input through the target once, decodes the
// resulting trace, performs crash handling, feeds the trace to the
// aggregator, and projects the result onto use_cov.
func (l *Loop) executeAndProject(input []byte) (coverage.Projection, error) {
	if l.startTime.IsZero() {
		l.startTime = time.Now()
	}
	l.maybeLogStatus()

	trace.Clear(l.region.Bytes())
	res, err := l.exec.Run(input)
	if err != nil {
		return coverage.Projection{}, fmt.Errorf("engine: target execution: %w", err)
	}
	l.execCount++
	if l.recorder != nil {
		l.recorder.ObserveExecution(res.Duration)
	}

	tr := trace.Decode(l.region.Bytes())

	if res.Killed {
		l.handleSignal(input, res.Signal, tr)
	}

	feedback := l.agg.Observe(tr)
	proj := coverage.Project(feedback, l.useCov)
	if proj.TriggersNew {
		l.newCovCount++
	}
	return proj, nil
}

// handleSignal deduplicates crash signals by the last block id in the
// trace; other signals are logged and ignored.
func (l *Loop) handleSignal(input []byte, sig types.Signal, tr types.Trace) {
	if !types.IsCrashSignal(sig) {
		l.log.Warn("target terminated by unhandled signal", "signal", sig)
		return
	}
	if len(tr) == 0 {
		l.log.Warn("crash with empty trace, nothing to dedupe on", "signal", sig)
		return
	}
	last := tr[len(tr)-1]
	if _, seen := l.crashSeen[last]; seen {
		return
	}
	l.crashSeen[last] = struct{}{}
	if _, err := l.qdir.SaveCrash(input, int(sig)); err != nil {
		l.log.Error("failed to save crash", "error", err)
	}
}

// maybeLogStatus logs a status line at most once per statusInterval,
// regardless of how often the loop calls it.
func (l *Loop) maybeLogStatus() {
	now := time.Now()
	if !l.lastStatusTime.IsZero() && now.Sub(l.lastStatusTime) < statusInterval {
		return
	}
	l.lastStatusTime = now
	elapsed := now.Sub(l.startTime)
	execPerSec := float64(0)
	if elapsed.Seconds() > 0 {
		execPerSec = float64(l.execCount) / elapsed.Seconds()
	}
	l.log.Info("fuzzer status",
		"runtime", elapsed.Round(time.Second),
		"total_executions", l.execCount,
		"new_coverage_found", l.newCovCount,
		"crashes_found", len(l.crashSeen),
		"exec_per_sec", execPerSec,
		"queue_size", l.pq.Len(),
		"level", l.level,
	)

	if l.recorder != nil {
		summaries := make(map[string]any, len(l.agg.Names()))
		for _, name := range l.agg.Names() {
			if m, ok := l.agg.Metric(name); ok {
				summaries[name] = m.Summary()
			}
		}
		l.recorder.Tick(stats.Snapshot{
			Timestamp:     now,
			Level:         l.level,
			Executions:    l.execCount,
			QueueDepth:    l.pq.Len(),
			Crashes:       len(l.crashSeen),
			MetricSummary: summaries,
		})
	}
}

// fullDumps collects every registered metric's Full() output, keyed by
// name, for the shutdown-time stats report.
func (l *Loop) fullDumps() map[string]any {
	out := make(map[string]any, len(l.agg.Names()))
	for _, name := range l.agg.Names() {
		if m, ok := l.agg.Metric(name); ok {
			out[name] = m.Full()
		}
	}
	return out
}

// Flush writes the accumulated stats history plus every metric's full
// dump to disk. It is a no-op if no recorder was configured.
func (l *Loop) Flush() error {
	if l.recorder == nil {
		return nil
	}
	return l.recorder.Flush(l.fullDumps())
}
