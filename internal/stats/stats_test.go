package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecorderCreatesStatsDir(t *testing.T) {
	root := t.TempDir()
	r, err := NewRecorder(root)
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID())

	_, err = os.Stat(filepath.Join(root, "stats"))
	assert.NoError(t, err)
}

func TestFlushWritesJSON(t *testing.T) {
	root := t.TempDir()
	r, err := NewRecorder(root)
	require.NoError(t, err)

	r.Tick(Snapshot{Level: 1, Executions: 10, QueueDepth: 2, Crashes: 0})
	require.NoError(t, r.Flush(map[string]any{"block": map[string]int{"1": 3}}))

	path := filepath.Join(root, "stats", r.RunID()+".json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level": 1`)
	assert.Contains(t, string(data), `"block"`)
}

func TestObserveExecutionFeedsHistogram(t *testing.T) {
	root := t.TempDir()
	r, err := NewRecorder(root)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		r.ObserveExecution(time.Millisecond * time.Duration(i+1))
	}
	q := r.ExecutionQuantile(0.5)
	assert.Greater(t, q, 0.0)
}
