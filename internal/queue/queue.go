// Package queue implements the on-disk test-case store and the
// in-memory priority queue that drives the fuzzing loop, grounded on
// the directory layout and save-then-index pattern of a
// content-addressed corpus, adapted to a queue filename grammar and
// Feedback-keyed priority.
package queue

import (
	"container/heap"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/covfuzz/covfuzz/internal/coverage"
)

// TestCase is an opaque input referenced by its queue filename plus
// the feedback rank it was enqueued with.
type TestCase struct {
	Data     []byte
	Filename string
	Feedback coverage.Feedback
}

// Dir owns the queue/ and crashes/ subdirectories of one fuzzer
// instance's output directory.
type Dir struct {
	root        string
	queueDir    string
	crashesDir  string
	nextSeedID  int
	nextCrashID int
}

// Open creates (if absent) root/queue and root/crashes and returns a
// Dir ready for Save/SaveCrash/Rescan.
func Open(root string) (*Dir, error) {
	queueDir := filepath.Join(root, "queue")
	crashesDir := filepath.Join(root, "crashes")
	if err := os.MkdirAll(queueDir, 0o755); err != nil {
		return nil, fmt.Errorf("queue: creating %s: %w", queueDir, err)
	}
	if err := os.MkdirAll(crashesDir, 0o755); err != nil {
		return nil, fmt.Errorf("queue: creating %s: %w", crashesDir, err)
	}
	return &Dir{root: root, queueDir: queueDir, crashesDir: crashesDir}, nil
}

// QueueDir returns the directory holding saved, non-crash test cases.
func (d *Dir) QueueDir() string { return d.queueDir }

// CrashesDir returns the directory holding saved crashing inputs.
func (d *Dir) CrashesDir() string { return d.crashesDir }

// Save writes data to the queue directory under a filename encoding
// whether it triggered new coverage and, when it did, which metric and
// at what uniqueness. The write is flushed before returning so a hard
// kill leaves the queue consistent.
func (d *Dir) Save(data []byte, triggeredNew bool, metric string, uniqueness int) (string, error) {
	id := d.nextSeedID
	d.nextSeedID++

	name := fmt.Sprintf("id:%06d", id)
	if triggeredNew {
		name += ":+cov"
		if metric != "" {
			name += fmt.Sprintf("_%s_%d", metric, uniqueness)
		}
	}
	if err := writeFileSynced(filepath.Join(d.queueDir, name), data); err != nil {
		return "", err
	}
	return name, nil
}

// SaveCrash writes data to the crashes directory under a filename
// encoding an incrementing id and the signal number.
func (d *Dir) SaveCrash(data []byte, sig int) (string, error) {
	id := d.nextCrashID
	d.nextCrashID++
	name := fmt.Sprintf("crash:%06d,sig:%d", id, sig)
	if err := writeFileSynced(filepath.Join(d.crashesDir, name), data); err != nil {
		return "", err
	}
	return name, nil
}

func writeFileSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("queue: creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("queue: writing %s: %w", path, err)
	}
	return f.Sync()
}

var filenameMetricSuffix = regexp.MustCompile(`^id:\d+:\+cov(?:_([a-zA-Z]+)_(\d+))?$`)

// Rescan reloads every file currently on disk in the queue directory
// as an Old test case at priority 0: it re-parses feedback from the
// filename rather than re-scoring, and an Old item with no
// recoverable metric suffix falls back to Old(NoCoverage(0)).
func (d *Dir) Rescan() ([]TestCase, error) {
	entries, err := os.ReadDir(d.queueDir)
	if err != nil {
		return nil, fmt.Errorf("queue: rescanning %s: %w", d.queueDir, err)
	}
	out := make([]TestCase, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(d.queueDir, ent.Name()))
		if err != nil {
			return nil, fmt.Errorf("queue: reading %s: %w", ent.Name(), err)
		}
		inner := parseFeedbackFromFilename(ent.Name())
		out = append(out, TestCase{
			Data:     data,
			Filename: ent.Name(),
			Feedback: coverage.Old(inner),
		})
	}
	return out, nil
}

func parseFeedbackFromFilename(name string) coverage.Feedback {
	m := filenameMetricSuffix.FindStringSubmatch(name)
	if m == nil || m[1] == "" {
		return coverage.NoCoverage(0)
	}
	uniqueness, err := strconv.Atoi(m[2])
	if err != nil {
		return coverage.NoCoverage(0)
	}
	switch strings.ToLower(m[1]) {
	case "block":
		return coverage.NewBlockFeedback(uniqueness)
	case "edge":
		return coverage.NewEdgeFeedback(uniqueness)
	case "perfunction", "path", "rawpath":
		return coverage.NewPathFeedback(uniqueness)
	default:
		return coverage.NoCoverage(uniqueness)
	}
}

// Priority is a max-heap of pending TestCases ordered by Feedback:
// largest priority first; tie-break within a bucket is unspecified
// and must not be depended upon.
type Priority struct {
	items []TestCase
}

// NewPriority returns an empty priority queue.
func NewPriority() *Priority {
	pq := &Priority{}
	heap.Init(pq)
	return pq
}

func (pq *Priority) Len() int { return len(pq.items) }

func (pq *Priority) Less(i, j int) bool {
	// container/heap is a min-heap; invert Less so Pop returns the
	// highest-priority (largest) feedback first.
	return pq.items[j].Feedback.Less(pq.items[i].Feedback)
}

func (pq *Priority) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *Priority) Push(x any) { pq.items = append(pq.items, x.(TestCase)) }

func (pq *Priority) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}

// Enqueue adds tc to the priority queue.
func (pq *Priority) Enqueue(tc TestCase) {
	heap.Push(pq, tc)
}

// Drain pops the single highest-priority test case, or ok=false if
// the queue is empty.
func (pq *Priority) Drain() (tc TestCase, ok bool) {
	if pq.Len() == 0 {
		return TestCase{}, false
	}
	return heap.Pop(pq).(TestCase), true
}
